package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"render-ranker/internal/domain/entity"
	"render-ranker/internal/domain/port"
)

// FileLoader декодирует PNG, JPEG, GIF, BMP, TIFF и WebP в RGB-растр.
type FileLoader struct{}

// NewFileLoader создаёт загрузчик.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load открывает файл и декодирует его. Файл закрывается на любом пути выхода.
func (l *FileLoader) Load(path string) (*entity.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &entity.LoadError{Path: path, Err: err}
	}
	defer f.Close()

	return decode(path, f)
}

// Decode декодирует изображение из памяти.
func (l *FileLoader) Decode(name string, data []byte) (*entity.Raster, error) {
	return decode(name, bytes.NewReader(data))
}

func decode(name string, r io.Reader) (*entity.Raster, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = fmt.Errorf("empty or truncated file: %w", err)
		}
		return nil, &entity.LoadError{Path: name, Err: err}
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &entity.FormatError{Path: name, Reason: fmt.Sprintf("%s image has zero size %dx%d", format, b.Dx(), b.Dy())}
	}

	return &entity.Raster{Width: b.Dx(), Height: b.Dy(), Pix: toRGB(img)}, nil
}

// toRGB отбрасывает альфа-канал без предумножения, как при convert("RGB").
func toRGB(img image.Image) []uint8 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, 0, w*h*3)

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			for x := 0; x < w; x++ {
				pix = append(pix, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	case *image.Gray:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w]
			for _, v := range row {
				pix = append(pix, v, v, v)
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				pix = append(pix, c.R, c.G, c.B)
			}
		}
	}
	return pix
}

var _ port.ImageLoader = (*FileLoader)(nil)
