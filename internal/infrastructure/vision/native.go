package vision

import (
	"errors"
	"math"

	"render-ranker/internal/domain/entity"
	"render-ranker/internal/domain/port"
)

// Коэффициенты BT.601 в фиксированной точке (14 бит), как в OpenCV RGB2GRAY.
const (
	grayShift = 14
	grayR     = 4899
	grayG     = 9617
	grayB     = 1868
)

const hsvShift = 12

var (
	sdivTable [256]int32
	hdivTable [256]int32
)

func init() {
	for i := 1; i < 256; i++ {
		sdivTable[i] = int32(math.RoundToEven(float64(255<<hsvShift) / float64(i)))
		hdivTable[i] = int32(math.RoundToEven(float64(180<<hsvShift) / (6 * float64(i))))
	}
}

// NativeAnalyzer реализация на чистом Go, повторяющая 8-битные преобразования OpenCV.
type NativeAnalyzer struct{}

// NewNativeAnalyzer создаёт анализатор без внешних зависимостей.
func NewNativeAnalyzer() *NativeAnalyzer {
	return &NativeAnalyzer{}
}

// Grayscale считает Y = 0.299R + 0.587G + 0.114B с округлением.
func (a *NativeAnalyzer) Grayscale(img *entity.Raster) (*entity.Plane, error) {
	if err := checkRaster(img); err != nil {
		return nil, err
	}

	out := make([]uint8, img.PixelCount())
	for i := range out {
		p := img.Pix[i*3 : i*3+3]
		y := (int32(p[0])*grayR + int32(p[1])*grayG + int32(p[2])*grayB + 1<<(grayShift-1)) >> grayShift
		out[i] = uint8(y)
	}
	return &entity.Plane{Width: img.Width, Height: img.Height, Pix: out}, nil
}

// HSV раскладывает растр на H (0..179), S и V (0..255).
func (a *NativeAnalyzer) HSV(img *entity.Raster) (*entity.Plane, *entity.Plane, *entity.Plane, error) {
	if err := checkRaster(img); err != nil {
		return nil, nil, nil, err
	}

	n := img.PixelCount()
	hs := make([]uint8, n)
	ss := make([]uint8, n)
	vs := make([]uint8, n)
	for i := 0; i < n; i++ {
		r := int32(img.Pix[i*3])
		g := int32(img.Pix[i*3+1])
		b := int32(img.Pix[i*3+2])

		v := max(r, g, b)
		diff := v - min(r, g, b)

		var h int32
		switch {
		case v == r:
			h = g - b
		case v == g:
			h = b - r + 2*diff
		default:
			h = r - g + 4*diff
		}
		s := (diff*sdivTable[v] + 1<<(hsvShift-1)) >> hsvShift
		h = (h*hdivTable[diff] + 1<<(hsvShift-1)) >> hsvShift
		if h < 0 {
			h += 180
		}

		hs[i] = uint8(h)
		ss[i] = uint8(s)
		vs[i] = uint8(v)
	}

	plane := func(pix []uint8) *entity.Plane {
		return &entity.Plane{Width: img.Width, Height: img.Height, Pix: pix}
	}
	return plane(hs), plane(ss), plane(vs), nil
}

// Edges запускает детектор Canny с апертурой Собеля 3 и L1-нормой градиента.
func (a *NativeAnalyzer) Edges(gray *entity.Plane, low, high float64) (*entity.Plane, error) {
	if gray == nil || gray.Width <= 0 || gray.Height <= 0 || len(gray.Pix) != gray.Width*gray.Height {
		return nil, errors.New("invalid gray plane")
	}
	if low > high {
		low, high = high, low
	}
	return canny(gray, int32(math.Floor(low)), int32(math.Floor(high))), nil
}

func checkRaster(img *entity.Raster) error {
	if img == nil || img.Width <= 0 || img.Height <= 0 || len(img.Pix) != img.Width*img.Height*3 {
		return errors.New("invalid raster")
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.Analyzer = (*NativeAnalyzer)(nil)
