package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRaster_Validation(t *testing.T) {
	_, err := NewRaster(0, 2, nil)
	require.Error(t, err)

	_, err = NewRaster(2, 2, make([]uint8, 5))
	require.Error(t, err)

	r, err := NewRaster(2, 1, []uint8{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	require.Equal(t, 2, r.PixelCount())

	red, green, blue := r.At(1, 0)
	require.Equal(t, []uint8{4, 5, 6}, []uint8{red, green, blue})
}

func TestPlane_Sum(t *testing.T) {
	p := &Plane{Width: 2, Height: 2, Pix: []uint8{255, 255, 0, 1}}
	require.Equal(t, uint64(511), p.Sum())
}
