package port

import "render-ranker/internal/domain/entity"

// ImageLoader декодирует изображения в RGB-растр
type ImageLoader interface {
	// Load читает файл по пути; ошибки *entity.LoadError или *entity.FormatError
	Load(path string) (*entity.Raster, error)

	// Decode декодирует изображение из памяти, name используется в ошибках
	Decode(name string, data []byte) (*entity.Raster, error)
}
