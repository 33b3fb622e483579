package imageio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"render-ranker/internal/domain/entity"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestFileLoader_LoadPNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	raster, err := NewFileLoader().Load(writePNG(t, img))
	require.NoError(t, err)
	require.Equal(t, 3, raster.Width)
	require.Equal(t, 2, raster.Height)

	r, g, b := raster.At(0, 0)
	require.Equal(t, []uint8{10, 20, 30}, []uint8{r, g, b})
	r, g, b = raster.At(2, 1)
	require.Equal(t, []uint8{200, 100, 50}, []uint8{r, g, b})
}

func TestFileLoader_AlphaIsDropped(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 10})

	raster, err := NewFileLoader().Load(writePNG(t, img))
	require.NoError(t, err)
	r, g, b := raster.At(0, 0)
	require.Equal(t, []uint8{255, 0, 0}, []uint8{r, g, b})
}

func TestFileLoader_GrayExpandsToThreeChannels(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(1, 1, color.Gray{Y: 77})

	raster, err := NewFileLoader().Load(writePNG(t, img))
	require.NoError(t, err)
	require.Len(t, raster.Pix, 12)
	r, g, b := raster.At(1, 1)
	require.Equal(t, []uint8{77, 77, 77}, []uint8{r, g, b})
}

func TestFileLoader_DecodeBMP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 0, G: 0, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))

	raster, err := NewFileLoader().Decode("upload.bmp", buf.Bytes())
	require.NoError(t, err)
	r, g, b := raster.At(3, 3)
	require.Equal(t, []uint8{0, 0, 255}, []uint8{r, g, b})
}

func TestFileLoader_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not an image"), 0o644))

	for _, path := range []string{filepath.Join(dir, "missing.png"), empty, garbage} {
		_, err := NewFileLoader().Load(path)
		require.Error(t, err)

		var loadErr *entity.LoadError
		require.ErrorAs(t, err, &loadErr, path)
		require.Equal(t, path, loadErr.Path)
	}
}

// zeroWidthBMP заголовок 24-битного BMP шириной 0 без пиксельных данных.
func zeroWidthBMP() []byte {
	const fileHeaderLen, infoHeaderLen = 14, 40
	b := make([]byte, fileHeaderLen+infoHeaderLen)
	copy(b, "BM")
	binary.LittleEndian.PutUint32(b[2:6], uint32(len(b)))
	binary.LittleEndian.PutUint32(b[10:14], fileHeaderLen+infoHeaderLen)
	binary.LittleEndian.PutUint32(b[14:18], infoHeaderLen)
	binary.LittleEndian.PutUint32(b[18:22], 0) // ширина
	binary.LittleEndian.PutUint32(b[22:26], 2) // высота
	binary.LittleEndian.PutUint16(b[26:28], 1) // плоскости
	binary.LittleEndian.PutUint16(b[28:30], 24)
	return b
}

func TestFileLoader_ZeroSizeIsFormatError(t *testing.T) {
	_, err := NewFileLoader().Decode("empty.bmp", zeroWidthBMP())

	var formatErr *entity.FormatError
	require.ErrorAs(t, err, &formatErr)
	require.Equal(t, "empty.bmp", formatErr.Path)
	require.Contains(t, formatErr.Reason, "zero size 0x2")

	var loadErr *entity.LoadError
	require.False(t, errors.As(err, &loadErr))
}
