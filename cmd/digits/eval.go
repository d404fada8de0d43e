package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/born-ml/digits/internal/backend"
	"github.com/born-ml/digits/internal/classifier"
	"github.com/born-ml/digits/internal/deslant"
	"github.com/born-ml/digits/internal/mnist"
	"github.com/born-ml/digits/internal/model"
	"github.com/born-ml/digits/internal/network"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const numClasses = 10

// evalResult accumulates predictions against labels.
type evalResult struct {
	confusion *mat.Dense // [label, predicted] counts
	skipped   int        // images with degenerate geometry
}

func newEvalResult() *evalResult {
	return &evalResult{confusion: mat.NewDense(numClasses, numClasses, nil)}
}

func (r *evalResult) add(label, predicted int) {
	r.confusion.Set(label, predicted, r.confusion.At(label, predicted)+1)
}

func (r *evalResult) total() float64 {
	return mat.Sum(r.confusion)
}

func (r *evalResult) accuracy() float64 {
	total := r.total()
	if total == 0 {
		return 0
	}
	return mat.Trace(r.confusion) / total
}

// classAccuracy returns the recall of every digit, NaN where a digit never occurs.
func (r *evalResult) classAccuracy() []float64 {
	out := make([]float64, numClasses)
	for d := range out {
		support := floats.Sum(r.confusion.RawRowView(d))
		out[d] = r.confusion.At(d, d) / support
	}
	return out
}

func runEval(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("eval", stderr)
	weights := fs.String("weights", "", "Weight artifact (.dgw or .json)")
	imagesPath := fs.String("images", "", "IDX image file (may be .gz)")
	labelsPath := fs.String("labels", "", "IDX label file (may be .gz)")
	csvPath := fs.String("csv", "", "Kaggle-style CSV instead of IDX files")
	limit := fs.Int("limit", 0, "Evaluate at most this many samples (0 = all)")
	batchSize := fs.Int("batch", 256, "Images per forward pass")
	workers := fs.Int("workers", 0, "Worker count (0 = physical cores)")
	backendKind := fs.String("backend", "cpu", "Backend (cpu or webgpu)")
	logLevel := fs.String("log-level", "info", "Log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *weights == "" {
		return usageErrorf("-weights is required")
	}
	if *batchSize <= 0 {
		return usageErrorf("-batch must be > 0")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return usageErrorf("-log-level: %v", err)
	}
	logger := newLogger(stderr, "text", level)

	var (
		data *mnist.Dataset
		err  error
	)
	switch {
	case *csvPath != "":
		data, err = mnist.LoadCSV(*csvPath, *limit)
	case *imagesPath != "" && *labelsPath != "":
		data, err = mnist.LoadIDX(*imagesPath, *labelsPath, *limit)
	default:
		return usageErrorf("either -csv or both -images and -labels are required")
	}
	if err != nil {
		return err
	}

	m, err := model.LoadFile(*weights)
	if err != nil {
		return err
	}
	mm, release, err := newBackend(backend.Kind(*backendKind))
	if err != nil {
		return err
	}
	defer release()

	par := parallelConfig(*workers)
	logHost(logger, par, mm)

	c, err := classifier.New(m.Layers, par, network.WithBackend(mm))
	if err != nil {
		return err
	}
	if w := c.Network().OutputWidth(); w != numClasses {
		return fmt.Errorf("model %q has %d outputs, eval needs %d", m.ID, w, numClasses)
	}

	start := time.Now()
	res, err := evaluate(ctx, c, data, *batchSize, logger)
	if err != nil {
		return err
	}
	logger.Info("evaluation finished",
		"model", m.ID,
		"samples", int(res.total()),
		"skipped", res.skipped,
		"duration", time.Since(start),
	)

	printReport(stdout, res)
	return nil
}

// evaluate classifies data in batches. Images with degenerate geometry are
// counted as skipped; the rest of their batch is scored.
func evaluate(ctx context.Context, c *classifier.Classifier, data *mnist.Dataset, batchSize int, logger *slog.Logger) (*evalResult, error) {
	res := newEvalResult()

	for start := 0; start < data.Len(); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+batchSize, data.Len())

		out, err := c.Batch(data.Images[start:end], network.ModeClass)
		if out == nil || (err != nil && !errors.Is(err, deslant.ErrDegenerateGeometry)) {
			return nil, fmt.Errorf("batch at %d: %w", start, err)
		}
		for i, predicted := range out.Classes {
			if rowErr := out.Err(i); rowErr != nil {
				logger.Debug("skipping image", "index", start+i, "error", rowErr)
				res.skipped++
				continue
			}
			res.add(data.Labels[start+i], predicted)
		}
	}

	return res, nil
}

func printReport(w io.Writer, res *evalResult) {
	fmt.Fprintf(w, "samples:  %d (skipped %d)\n", int(res.total()), res.skipped)
	fmt.Fprintf(w, "accuracy: %.4f\n\n", res.accuracy())

	fmt.Fprintln(w, "per digit:")
	for d, acc := range res.classAccuracy() {
		fmt.Fprintf(w, "  %d  %.4f\n", d, acc)
	}

	fmt.Fprintln(w, "\nconfusion (rows = label, cols = predicted):")
	fmt.Fprintf(w, "%v\n", mat.Formatted(res.confusion, mat.Squeeze()))
}
