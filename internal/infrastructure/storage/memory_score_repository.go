package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"render-ranker/internal/domain/entity"
	"render-ranker/internal/domain/port"
)

// MemoryScoreRepository in-memory хранилище оценок (для тестов и запусков без --db)
type MemoryScoreRepository struct {
	mu      sync.RWMutex
	records []*entity.ScoreRecord
}

// NewMemoryScoreRepository создаёт пустое хранилище
func NewMemoryScoreRepository() *MemoryScoreRepository {
	return &MemoryScoreRepository{}
}

// Save добавляет оценку
func (r *MemoryScoreRepository) Save(ctx context.Context, rec *entity.ScoreRecord) error {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()

	return nil
}

// Best возвращает лучшие оценки не старше since
func (r *MemoryScoreRepository) Best(ctx context.Context, since time.Time, limit int) ([]*entity.ScoreRecord, error) {
	return r.filter(limit, func(rec *entity.ScoreRecord) bool {
		return !rec.ScoredAt.Before(since)
	}), nil
}

// ByRender возвращает оценки кадров одного рендера
func (r *MemoryScoreRepository) ByRender(ctx context.Context, renderID string) ([]*entity.ScoreRecord, error) {
	return r.filter(0, func(rec *entity.ScoreRecord) bool {
		return rec.RenderID == renderID
	}), nil
}

func (r *MemoryScoreRepository) filter(limit int, keep func(*entity.ScoreRecord) bool) []*entity.ScoreRecord {
	r.mu.RLock()
	out := make([]*entity.ScoreRecord, 0, len(r.records))
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()

	sortByScore(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// sortByScore сортирует по убыванию оценки, при равенстве по пути
func sortByScore(recs []*entity.ScoreRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Breakdown.Score != recs[j].Breakdown.Score {
			return recs[i].Breakdown.Score > recs[j].Breakdown.Score
		}
		return recs[i].Path < recs[j].Path
	})
}

var _ port.ScoreRepository = (*MemoryScoreRepository)(nil)
