//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"render-ranker/internal/domain/entity"
	"render-ranker/internal/domain/port"
)

// GoCVAnalyzer анализатор на OpenCV.
type GoCVAnalyzer struct{}

// NewGoCVAnalyzer создаёт анализатор на OpenCV.
func NewGoCVAnalyzer() *GoCVAnalyzer {
	return &GoCVAnalyzer{}
}

// Grayscale переводит RGB в серый через cv::cvtColor.
func (a *GoCVAnalyzer) Grayscale(img *entity.Raster) (*entity.Plane, error) {
	mat, err := rasterToMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBToGray)

	return matToPlane(gray)
}

// HSV раскладывает растр на каналы H, S, V.
func (a *GoCVAnalyzer) HSV(img *entity.Raster) (*entity.Plane, *entity.Plane, *entity.Plane, error) {
	mat, err := rasterToMat(img)
	if err != nil {
		return nil, nil, nil, err
	}
	defer mat.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorRGBToHSV)

	channels := gocv.Split(hsv)
	for i := range channels {
		defer channels[i].Close()
	}
	if len(channels) < 3 {
		return nil, nil, nil, errors.New("invalid hsv channels")
	}

	planes := make([]*entity.Plane, 3)
	for i := 0; i < 3; i++ {
		planes[i], err = matToPlane(channels[i])
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return planes[0], planes[1], planes[2], nil
}

// Edges запускает cv::Canny на серой плоскости.
func (a *GoCVAnalyzer) Edges(gray *entity.Plane, low, high float64) (*entity.Plane, error) {
	if gray == nil || len(gray.Pix) != gray.Width*gray.Height || gray.Width <= 0 {
		return nil, errors.New("invalid gray plane")
	}
	mat, err := gocv.NewMatFromBytes(gray.Height, gray.Width, gocv.MatTypeCV8UC1, gray.Pix)
	if err != nil {
		return nil, fmt.Errorf("gray to mat: %w", err)
	}
	defer mat.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(mat, &edges, float32(low), float32(high))

	return matToPlane(edges)
}

// rasterToMat копирует RGB-буфер в gocv.Mat.
func rasterToMat(img *entity.Raster) (gocv.Mat, error) {
	if err := checkRaster(img); err != nil {
		return gocv.NewMat(), err
	}
	mat, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, img.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("raster to mat: %w", err)
	}
	return mat, nil
}

func matToPlane(mat gocv.Mat) (*entity.Plane, error) {
	if mat.Empty() || mat.Channels() != 1 {
		return nil, errors.New("expected single-channel mat")
	}
	pix := make([]uint8, mat.Rows()*mat.Cols())
	copy(pix, mat.ToBytes())
	return &entity.Plane{Width: mat.Cols(), Height: mat.Rows(), Pix: pix}, nil
}

// NewDefaultAnalyzer при сборке с тегом gocv использует OpenCV.
func NewDefaultAnalyzer() port.Analyzer {
	return NewGoCVAnalyzer()
}

var _ port.Analyzer = (*GoCVAnalyzer)(nil)
