package port

import "render-ranker/internal/domain/entity"

// Analyzer набор операций над растром, которые поставляет библиотека обработки изображений
type Analyzer interface {
	// Grayscale переводит растр в яркость (BT.601)
	Grayscale(img *entity.Raster) (*entity.Plane, error)

	// HSV раскладывает растр на плоскости H, S, V в 8-битной шкале
	HSV(img *entity.Raster) (h, s, v *entity.Plane, err error)

	// Edges строит бинарную карту границ (0/255) двухпороговым детектором
	Edges(gray *entity.Plane, low, high float64) (*entity.Plane, error)
}
