package app

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"render-ranker/internal/domain/entity"
	"render-ranker/internal/infrastructure/imageio"
	"render-ranker/internal/infrastructure/vision"
)

var (
	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.NRGBA{R: 255, A: 255}
)

// writeImage сохраняет PNG размером w×h, цвет пикселя задаёт fill.
func writeImage(t *testing.T, dir, name string, w, h int, fill func(x, y int) color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, fill(x, y))
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func solid(c color.NRGBA) func(x, y int) color.NRGBA {
	return func(int, int) color.NRGBA { return c }
}

func newTestScorer() *Scorer {
	return NewScorer(imageio.NewFileLoader(), vision.NewNativeAnalyzer())
}

func TestScorer_BlackImage(t *testing.T) {
	path := writeImage(t, t.TempDir(), "black.png", 2, 2, solid(black))

	b, err := newTestScorer().Breakdown(path)
	require.NoError(t, err)
	require.Equal(t, 0.0, b.Contrast)
	require.Equal(t, 0.0, b.Saturation)
	require.Equal(t, 0.0, b.EdgeEnergy)
	require.Equal(t, 1.0, b.Symmetry)
	require.Equal(t, 0.1, b.Score)
}

func TestScorer_PureRed(t *testing.T) {
	path := writeImage(t, t.TempDir(), "red.png", 4, 4, solid(red))

	b, err := newTestScorer().Breakdown(path)
	require.NoError(t, err)
	require.Equal(t, 0.0, b.Contrast)
	require.Equal(t, 255.0, b.Saturation)
	require.Equal(t, 0.0, b.EdgeEnergy)
	require.Equal(t, 1.0, b.Symmetry)
	require.InDelta(t, 0.2*255+0.1, b.Score, 1e-9)
}

func TestScorer_UniformColorSaturation(t *testing.T) {
	dir := t.TempDir()

	pale := writeImage(t, dir, "pale.png", 6, 3, solid(color.NRGBA{R: 255, G: 128, B: 128, A: 255}))
	b, err := newTestScorer().Breakdown(pale)
	require.NoError(t, err)
	require.Equal(t, 0.0, b.Contrast)
	require.Equal(t, 127.0, b.Saturation)

	gray := writeImage(t, dir, "gray.png", 6, 3, solid(color.NRGBA{R: 90, G: 90, B: 90, A: 255}))
	b, err = newTestScorer().Breakdown(gray)
	require.NoError(t, err)
	require.Equal(t, 0.0, b.Contrast)
	require.Equal(t, 0.0, b.Saturation)
}

func TestScorer_MirrorSymmetric(t *testing.T) {
	// левая половина: произвольный узор, правая: его зеркало
	left := func(x, y int) color.NRGBA {
		return color.NRGBA{R: uint8(x * 40), G: uint8(y * 30), B: uint8((x + y) * 20), A: 255}
	}
	const w = 8
	path := writeImage(t, t.TempDir(), "mirror.png", w, 5, func(x, y int) color.NRGBA {
		if x < w/2 {
			return left(x, y)
		}
		return left(w-1-x, y)
	})

	b, err := newTestScorer().Breakdown(path)
	require.NoError(t, err)
	require.Equal(t, 1.0, b.Symmetry)
}

func TestScorer_OneSidedStripe(t *testing.T) {
	path := writeImage(t, t.TempDir(), "stripe.png", 6, 4, func(x, y int) color.NRGBA {
		if x == 0 {
			return white
		}
		return black
	})

	b, err := newTestScorer().Breakdown(path)
	require.NoError(t, err)
	require.Less(t, b.Symmetry, 1.0)
	require.InDelta(t, 1-1.0/3, b.Symmetry, 1e-12)
	require.Greater(t, b.Contrast, 0.0)
	require.Greater(t, b.EdgeEnergy, 0.0)
}

func TestScorer_OddWidthSplit(t *testing.T) {
	dir := t.TempDir()

	// столбцы 0,1 зеркальны столбцам 4,3; средний столбец 2 не сравнивается
	middle := writeImage(t, dir, "middle.png", 5, 3, func(x, y int) color.NRGBA {
		if x == 2 {
			return white
		}
		return black
	})
	b, err := newTestScorer().Breakdown(middle)
	require.NoError(t, err)
	require.Equal(t, 1.0, b.Symmetry)

	// левая половина из 2 столбцов, первый сравнивается с последним
	edge := writeImage(t, dir, "edge.png", 5, 3, func(x, y int) color.NRGBA {
		if x == 0 {
			return white
		}
		return black
	})
	b, err = newTestScorer().Breakdown(edge)
	require.NoError(t, err)
	require.InDelta(t, 0.5, b.Symmetry, 1e-12)
}

func TestSymmetry_SingleColumn(t *testing.T) {
	img, err := entity.NewRaster(1, 2, []uint8{255, 0, 0, 0, 0, 255})
	require.NoError(t, err)
	require.Equal(t, 1.0, Symmetry(img))
}

func TestScorer_Deterministic(t *testing.T) {
	path := writeImage(t, t.TempDir(), "noise.png", 17, 11, func(x, y int) color.NRGBA {
		v := uint8((x*73 + y*151) % 256)
		return color.NRGBA{R: v, G: 255 - v, B: uint8(x * 15), A: 255}
	})

	s := newTestScorer()
	first, err := s.Score(path)
	require.NoError(t, err)
	second, err := s.Score(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestScorer_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	for _, path := range []string{filepath.Join(dir, "missing.png"), empty} {
		_, err := newTestScorer().Score(path)
		var loadErr *entity.LoadError
		require.ErrorAs(t, err, &loadErr, path)
	}
}

type brokenAnalyzer struct {
	*vision.NativeAnalyzer
}

var errChannelLayout = errors.New("unsupported channel layout")

func (brokenAnalyzer) HSV(*entity.Raster) (*entity.Plane, *entity.Plane, *entity.Plane, error) {
	return nil, nil, nil, errChannelLayout
}

func TestScorer_AnalyzerFailureIsFormatError(t *testing.T) {
	path := writeImage(t, t.TempDir(), "black.png", 2, 2, solid(black))

	_, err := NewScorer(imageio.NewFileLoader(), brokenAnalyzer{vision.NewNativeAnalyzer()}).Score(path)
	var formatErr *entity.FormatError
	require.ErrorAs(t, err, &formatErr)
	require.Equal(t, path, formatErr.Path)
	require.Equal(t, "hsv", formatErr.Reason)
	require.ErrorIs(t, err, errChannelLayout)
}

func TestStdDev_Population(t *testing.T) {
	require.Equal(t, 0.0, stdDev([]uint8{7, 7, 7}))
	require.Equal(t, 127.5, stdDev([]uint8{0, 255}))
	require.Equal(t, 0.0, stdDev(nil))
}
