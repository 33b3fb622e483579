package entity

import "fmt"

// Raster декодированное изображение в виде плоского RGB-буфера.
type Raster struct {
	Width  int     // ширина в пикселях
	Height int     // высота в пикселях
	Pix    []uint8 // пиксели построчно, по 3 байта (R, G, B) на пиксель
}

// NewRaster проверяет размеры и создаёт растр поверх готового буфера.
func NewRaster(width, height int, pix []uint8) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("raster buffer has %d bytes, want %d", len(pix), width*height*3)
	}
	return &Raster{Width: width, Height: height, Pix: pix}, nil
}

// PixelCount возвращает количество пикселей.
func (r *Raster) PixelCount() int {
	return r.Width * r.Height
}

// At возвращает каналы пикселя (x, y).
func (r *Raster) At(x, y int) (red, green, blue uint8) {
	i := (y*r.Width + x) * 3
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// Plane одноканальная матрица того же размера, что и растр (серый, S, карта границ).
type Plane struct {
	Width  int
	Height int
	Pix    []uint8
}

// Sum возвращает сумму значений плоскости.
func (p *Plane) Sum() uint64 {
	var sum uint64
	for _, v := range p.Pix {
		sum += uint64(v)
	}
	return sum
}
