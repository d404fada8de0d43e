package deslant

import (
	"errors"
	"fmt"
	"testing"

	"github.com/born-ml/digits/internal/parallel"
	"github.com/born-ml/digits/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func blank() []float64 {
	return make([]float64, tensor.Pixels)
}

func set(img []float64, row, col int, v float64) {
	img[row*tensor.Side+col] = v
}

// slantedStroke draws a two-pixel-wide stroke leaning right toward the bottom.
func slantedStroke() []float64 {
	img := blank()
	for row := 4; row < 24; row++ {
		col := 8 + (row-4)/2
		set(img, row, col, 1)
		set(img, row, col+1, 1)
	}
	return img
}

// plus draws a plus sign centered on (14, 14).
func plus() []float64 {
	img := blank()
	for i := 10; i <= 18; i++ {
		set(img, 14, i, 1)
		set(img, i, 14, 1)
	}
	return img
}

// rowCentroidSpread is the standard deviation of the ink-weighted column
// centroid across inked rows; an upright stroke has a small spread.
func rowCentroidSpread(img []float64) float64 {
	var centroids []float64
	for row := 0; row < tensor.Side; row++ {
		var mass, moment float64
		for col := 0; col < tensor.Side; col++ {
			v := tensor.At(img, row, col)
			mass += v
			moment += v * float64(col)
		}
		if mass > 0 {
			centroids = append(centroids, moment/mass)
		}
	}
	_, std := stat.PopMeanStdDev(centroids, nil)
	return std
}

func TestImage_BlankIsUnchanged(t *testing.T) {
	img := blank()
	set(img, 3, 3, 0.5) // At threshold, not significant.

	out, err := Image(img)
	require.NoError(t, err)
	assert.Equal(t, img, out)

	s, err := Estimate(img)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Significant)
	assert.True(t, s.Upright())
}

func TestImage_SinglePixelIsUnchanged(t *testing.T) {
	img := blank()
	set(img, 7, 20, 0.9)

	s, err := Estimate(img)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Significant)
	assert.Equal(t, 0.0, s.TanA)
	assert.Equal(t, 7.0, s.CenterRow)
	assert.Equal(t, 20.0, s.CenterCol)

	out, err := Image(img)
	require.NoError(t, err)
	assert.Equal(t, img, out)
}

func TestImage_PlusIsUnchanged(t *testing.T) {
	img := plus()

	s, err := Estimate(img)
	require.NoError(t, err)
	assert.Equal(t, 17, s.Significant)
	assert.InDelta(t, 14.0, s.CenterRow, 1e-12)
	assert.InDelta(t, 14.0, s.CenterCol, 1e-12)
	assert.InDelta(t, 0.0, s.TanA, 1e-12)

	out, err := Image(img)
	require.NoError(t, err)
	assert.InDeltaSlice(t, img, out, 1e-9)
}

func TestImage_StraightensSlantedStroke(t *testing.T) {
	img := slantedStroke()

	s, err := Estimate(img)
	require.NoError(t, err)
	assert.Less(t, s.TanA, 0.0, "stroke leaning right toward the bottom has negative tan")
	assert.InDelta(t, -0.5, s.TanA, 0.1)

	out, err := Image(img)
	require.NoError(t, err)
	require.Len(t, out, tensor.Pixels)

	before := rowCentroidSpread(img)
	after := rowCentroidSpread(out)
	assert.Less(t, after, before/3, "spread before %.3f after %.3f", before, after)

	// Rows are resampled along columns only: empty rows stay empty.
	for col := 0; col < tensor.Side; col++ {
		assert.Equal(t, 0.0, tensor.At(out, 0, col))
		assert.Equal(t, 0.0, tensor.At(out, 27, col))
	}

	for i, v := range out {
		assert.GreaterOrEqual(t, v, 0.0, "pixel %d", i)
		assert.LessOrEqual(t, v, 1.0, "pixel %d", i)
	}
}

// TestImage_Golden pins the estimate and the resampled pixels of a small
// asymmetric ink set against values worked out by hand:
//
//	rows (10, 11, 12, 13), cols (10, 12, 11, 14)
//	mean row 11.5, mean col 11.75
//	Σ dr·dc = 5.5, Σ dr² = 5, so tan_a = -corr·σc/σr = -cov/var(row) = -1.1
//	row shift = -1.1·(11.5 - row): -1.65, -0.55, +0.55, +1.65
func TestImage_Golden(t *testing.T) {
	img := blank()
	set(img, 10, 10, 0.9)
	set(img, 11, 12, 0.7)
	set(img, 12, 11, 1.0)
	set(img, 13, 14, 0.6)

	s, err := Estimate(img)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Significant)
	assert.InDelta(t, 11.5, s.CenterRow, 1e-12)
	assert.InDelta(t, 11.75, s.CenterCol, 1e-12)
	assert.InDelta(t, -1.1, s.TanA, 1e-12)

	out, err := Image(img)
	require.NoError(t, err)

	want := map[[2]int]float64{
		{10, 11}: 0.35 * 0.9, {10, 12}: 0.65 * 0.9,
		{11, 12}: 0.45 * 0.7, {11, 13}: 0.55 * 0.7,
		{12, 10}: 0.55 * 1.0, {12, 11}: 0.45 * 1.0,
		{13, 12}: 0.65 * 0.6, {13, 13}: 0.35 * 0.6,
	}
	for row := 0; row < tensor.Side; row++ {
		for col := 0; col < tensor.Side; col++ {
			assert.InDelta(t, want[[2]int{row, col}], tensor.At(out, row, col), 1e-12, "pixel (%d, %d)", row, col)
		}
	}
}

func TestApply_ClampsAtBorders(t *testing.T) {
	src := blank()
	for row := 0; row < tensor.Side; row++ {
		set(src, row, 0, 0.25)
		set(src, row, 27, 0.75)
	}
	dst := blank()

	// Large shear pushes source columns far outside [0, 27].
	apply(dst, src, Slant{Significant: 2, CenterRow: 14, TanA: 10})

	// Row 0: shift = +140, every column clamps to 27.
	for col := 0; col < tensor.Side; col++ {
		assert.Equal(t, 0.75, tensor.At(dst, 0, col))
	}
	// Row 27: shift = -130, every column clamps to 0.
	for col := 0; col < tensor.Side; col++ {
		assert.Equal(t, 0.25, tensor.At(dst, 27, col))
	}
}

func TestApply_LinearInterpolation(t *testing.T) {
	src := blank()
	set(src, 13, 4, 1)

	dst := blank()
	// Row 13 is one row above the center: shift = 0.25.
	apply(dst, src, Slant{Significant: 2, CenterRow: 14, TanA: 0.25})

	// col 3 reads ic = 3.25: 0.75*src[3] + 0.25*src[4].
	assert.InDelta(t, 0.25, tensor.At(dst, 13, 3), 1e-15)
	// col 4 reads ic = 4.25: 0.75*src[4] + 0.25*src[5].
	assert.InDelta(t, 0.75, tensor.At(dst, 13, 4), 1e-15)
}

func TestEstimate_DegenerateRow(t *testing.T) {
	img := blank()
	for col := 5; col < 20; col++ {
		set(img, 14, col, 1)
	}

	_, err := Estimate(img)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)

	var geomErr *DegenerateGeometryError
	require.ErrorAs(t, err, &geomErr)
	assert.Equal(t, "row", geomErr.Axis)
	assert.Equal(t, 15, geomErr.Significant)
	assert.Equal(t, -1, geomErr.Index)

	out, err := Image(img)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
	assert.Equal(t, img, out, "failed image is passed through unchanged")
}

func TestEstimate_DegenerateCol(t *testing.T) {
	img := blank()
	for row := 3; row < 25; row++ {
		set(img, row, 9, 0.8)
	}

	_, err := Estimate(img)
	var geomErr *DegenerateGeometryError
	require.ErrorAs(t, err, &geomErr)
	assert.Equal(t, "col", geomErr.Axis)
}

func TestBatch(t *testing.T) {
	degenerate := blank()
	for col := 2; col < 26; col++ {
		set(degenerate, 20, col, 1)
	}
	images := tensor.DenseFromRows([][]float64{slantedStroke(), degenerate, blank(), plus()})
	original := tensor.DenseFromRows([][]float64{slantedStroke(), degenerate, blank(), plus()})

	cfg := parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1}
	out, err := Batch(images, cfg)

	require.NotNil(t, out)
	r, c := out.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, tensor.Pixels, c)

	require.Error(t, err)
	var geomErr *DegenerateGeometryError
	require.True(t, errors.As(err, &geomErr))
	assert.Equal(t, 1, geomErr.Index)
	assert.Contains(t, err.Error(), "image 1:")

	single, singleErr := Image(slantedStroke())
	require.NoError(t, singleErr)
	assert.Equal(t, single, out.RawRowView(0))
	assert.Equal(t, degenerate, out.RawRowView(1))
	assert.Equal(t, blank(), out.RawRowView(2))

	assert.Equal(t, original.RawMatrix().Data, images.RawMatrix().Data, "input batch must not be modified")
}

func TestFailures(t *testing.T) {
	assert.Nil(t, Failures(nil, 3))
	assert.Nil(t, Failures(errors.New("other"), 3))

	first := &DegenerateGeometryError{Index: 0, Axis: "row", Significant: 2}
	third := &DegenerateGeometryError{Index: 2, Axis: "col", Significant: 5}
	err := fmt.Errorf("deslant: %w", errors.Join(nil, first, third))

	got := Failures(err, 3)
	require.Len(t, got, 3)
	assert.Same(t, first, got[0])
	assert.NoError(t, got[1])
	assert.Same(t, third, got[2])

	assert.Nil(t, Failures(&DegenerateGeometryError{Index: -1}, 3), "unindexed error")
}

func TestBatch_NoErrors(t *testing.T) {
	images := tensor.DenseFromRows([][]float64{blank(), plus()})
	_, err := Batch(images, parallel.Config{})
	assert.NoError(t, err)
}

func BenchmarkBatch(b *testing.B) {
	rows := make([][]float64, 256)
	for i := range rows {
		rows[i] = slantedStroke()
	}
	images := tensor.DenseFromRows(rows)

	b.Run("parallel", func(b *testing.B) {
		cfg := parallel.DefaultConfig()
		for i := 0; i < b.N; i++ {
			_, _ = Batch(images, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = Batch(images, parallel.Config{})
		}
	})
}
