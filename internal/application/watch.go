package app

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"render-ranker/internal/domain/entity"
)

// WatchSummary итог чтения канала статусов.
type WatchSummary struct {
	Scored    int                 `json:"scored" yaml:"scored"`
	Failed    int                 `json:"failed" yaml:"failed"`
	Malformed int                 `json:"malformed" yaml:"malformed"`
	Foreign   int                 `json:"foreign" yaml:"foreign"`
	Best      *entity.ScoreRecord `json:"best,omitempty" yaml:"best,omitempty"`
}

// WatchService читает статусы кадров от рендера и оценивает каждый готовый кадр.
type WatchService struct {
	scoring *ScoringService
}

// NewWatchService создаёт сервис.
func NewWatchService(scoring *ScoringService) *WatchService {
	return &WatchService{scoring: scoring}
}

// Watch читает строки {"id": ..., "frame": ...} до EOF. Битые строки и
// ошибки оценки кадра логируются и не прерывают чтение.
func (w *WatchService) Watch(ctx context.Context, payload *entity.RenderPayload, r io.Reader, onScored func(*entity.ScoreRecord)) (*WatchSummary, error) {
	summary := &WatchSummary{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		status, err := entity.ParseRenderStatus(line)
		if err != nil {
			summary.Malformed++
			log.Warn().Err(err).Str("line", string(line)).Msg("malformed render status")
			continue
		}
		if status.ID != payload.ID {
			summary.Foreign++
			log.Warn().Str("id", status.ID).Str("expected", payload.ID).Msg("status for another render")
			continue
		}

		rec, err := w.scoring.ScoreFrame(ctx, status.ID, status.Frame, payload.FramePath(status.Frame))
		if err != nil {
			summary.Failed++
			log.Error().Err(err).Int("frame", status.Frame).Msg("frame scoring failed")
			continue
		}

		summary.Scored++
		if summary.Best == nil || rec.Breakdown.Score > summary.Best.Breakdown.Score {
			summary.Best = rec
		}
		if onScored != nil {
			onScored(rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("read render status: %w", err)
	}
	return summary, nil
}
