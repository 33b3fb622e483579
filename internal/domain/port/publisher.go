package port

import (
	"context"

	"render-ranker/internal/domain/entity"
)

// Publisher публикует лучший рендер
type Publisher interface {
	Publish(ctx context.Context, rec *entity.ScoreRecord) error
}
