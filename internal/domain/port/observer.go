package port

import (
	"time"

	"render-ranker/internal/domain/entity"
)

// ScoreObserver получает события оценки (метрики)
type ScoreObserver interface {
	ObserveScore(b entity.ScoreBreakdown, took time.Duration)
	ObserveFailure(err error)
}
