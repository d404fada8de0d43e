// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package classify recognizes handwritten digits in 28×28 grayscale images.
//
// # Overview
//
// An image is a row-major slice of 784 values in [0, 1]. Classification runs
// three stages:
//   - Slant correction: the ink is sheared upright around its centroid
//   - Features: intensity and symmetry of the original image
//   - Network: sigmoid hidden layers and a softmax output layer
//
// # Basic Usage
//
//	import "github.com/born-ml/digits/classify"
//
//	func main() {
//	    m, err := classify.LoadModel("models/mnist.dgw")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    digit, err := classify.Classify(pixels, m.Layers)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("digit:", digit)
//	}
//
// # Errors
//
// Failures match one of ErrInputShape, ErrDegenerateGeometry,
// ErrDimensionMismatch or ErrWeightLoad with errors.Is.
package classify
