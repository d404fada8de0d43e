package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/born-ml/digits/internal/model"
	"github.com/born-ml/digits/internal/serialization"
	"github.com/born-ml/digits/internal/tensor"
)

func runConvert(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("convert", stderr)
	in := fs.String("in", "", "Source weights (.json or .dgw)")
	out := fs.String("out", "", "Destination (.dgw or .json)")
	dtypeName := fs.String("dtype", "float64", "Element type for .dgw output (float32 or float64)")
	source := fs.String("source", "", "Free-form provenance stored in .dgw metadata")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return usageErrorf("-in and -out are required")
	}
	dtype, ok := tensor.ParseDataType(*dtypeName)
	if !ok {
		return usageErrorf("unknown dtype %q", *dtypeName)
	}

	m, err := model.LoadFile(*in)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(*out), ".json") {
		//nolint:gosec // G304: path comes from the operator
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		if err := serialization.WriteJSON(f, m.Layers); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	} else {
		meta := map[string]string{"converted_from": filepath.Base(*in)}
		if *source != "" {
			meta["source"] = *source
		}
		err := serialization.WriteFile(*out, m.Layers, serialization.WriteOptions{DType: dtype, Metadata: meta})
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "wrote %s: %d layers %v\n", *out, len(m.Layers), m.Architecture())
	return nil
}
