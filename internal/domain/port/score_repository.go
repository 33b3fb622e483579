package port

import (
	"context"
	"time"

	"render-ranker/internal/domain/entity"
)

// ScoreRepository хранилище оценок
type ScoreRepository interface {
	// Save сохраняет оценку
	Save(ctx context.Context, rec *entity.ScoreRecord) error

	// Best возвращает лучшие оценки, сделанные не раньше since
	Best(ctx context.Context, since time.Time, limit int) ([]*entity.ScoreRecord, error)

	// ByRender возвращает оценки всех кадров рендера по убыванию
	ByRender(ctx context.Context, renderID string) ([]*entity.ScoreRecord, error)
}
