package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"render-ranker/internal/domain/entity"
	"render-ranker/internal/domain/port"
)

// imageExtensions файлы, которые RankDirectory считает кандидатами.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// RankOptions параметры ранжирования пачки.
type RankOptions struct {
	Workers  int  // сколько изображений оценивать одновременно, при 0 по числу CPU
	FailFast bool // прервать всю пачку на первой ошибке
	Save     bool // сохранить оценки в хранилище
}

// ScoringService оценивает и ранжирует рендеры.
type ScoringService struct {
	scorer   *Scorer
	repo     port.ScoreRepository
	observer port.ScoreObserver
}

// NewScoringService создаёт сервис. repo и observer могут быть nil.
func NewScoringService(scorer *Scorer, repo port.ScoreRepository, observer port.ScoreObserver) *ScoringService {
	return &ScoringService{
		scorer:   scorer,
		repo:     repo,
		observer: observer,
	}
}

// ScoreFile оценивает один файл и при наличии хранилища сохраняет результат.
func (s *ScoringService) ScoreFile(ctx context.Context, path string) (*entity.ScoreRecord, error) {
	b, err := s.breakdown(path)
	if err != nil {
		return nil, err
	}

	rec := entity.NewScoreRecord(path, b)
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ScoreFrame оценивает кадр рендера и привязывает оценку к нему.
func (s *ScoringService) ScoreFrame(ctx context.Context, renderID string, frame int, path string) (*entity.ScoreRecord, error) {
	b, err := s.breakdown(path)
	if err != nil {
		return nil, err
	}

	rec := entity.NewScoreRecord(path, b).WithFrame(renderID, frame)
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ScoreBytes оценивает изображение, пришедшее не с диска (например, из бота).
func (s *ScoringService) ScoreBytes(ctx context.Context, name string, data []byte) (entity.ScoreBreakdown, error) {
	_ = ctx
	start := time.Now()
	b, err := s.scorer.BreakdownBytes(name, data)
	s.observe(b, time.Since(start), err)
	return b, err
}

// Rank оценивает пачку файлов параллельно и сортирует по убыванию оценки.
// Без FailFast ошибочные файлы попадают в Ranking.Failures, остальные ранжируются.
func (s *ScoringService) Rank(ctx context.Context, paths []string, opts RankOptions) (*entity.Ranking, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type result struct {
		breakdown entity.ScoreBreakdown
		err       error
	}
	results := make([]result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := s.breakdown(path)
			if err != nil {
				if opts.FailFast {
					return fmt.Errorf("score %s: %w", path, err)
				}
				log.Warn().Err(err).Str("path", path).Msg("candidate skipped")
			}
			results[i] = result{breakdown: b, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranking := &entity.Ranking{Candidates: make([]entity.ScoredImage, 0, len(paths))}
	for i, r := range results {
		if r.err != nil {
			ranking.Failures = append(ranking.Failures, entity.ScoreFailure{Path: paths[i], Err: r.err, Reason: r.err.Error()})
			continue
		}
		ranking.Candidates = append(ranking.Candidates, entity.ScoredImage{Path: paths[i], Breakdown: r.breakdown})
	}
	sort.SliceStable(ranking.Candidates, func(i, j int) bool {
		a, b := ranking.Candidates[i], ranking.Candidates[j]
		if a.Breakdown.Score != b.Breakdown.Score {
			return a.Breakdown.Score > b.Breakdown.Score
		}
		return a.Path < b.Path
	})

	if opts.Save {
		for _, c := range ranking.Candidates {
			if err := s.save(ctx, entity.NewScoreRecord(c.Path, c.Breakdown)); err != nil {
				return nil, err
			}
		}
	}

	log.Info().
		Int("ranked", len(ranking.Candidates)).
		Int("failed", len(ranking.Failures)).
		Msg("batch ranked")
	return ranking, nil
}

// RankDirectory ранжирует все изображения в каталоге (рекурсивно).
func (s *ScoringService) RankDirectory(ctx context.Context, dir string, opts RankOptions) (*entity.Ranking, error) {
	paths, err := CollectImages(dir)
	if err != nil {
		return nil, err
	}
	return s.Rank(ctx, paths, opts)
}

// Best возвращает лучшие сохранённые оценки не старше since.
func (s *ScoringService) Best(ctx context.Context, since time.Time, limit int) ([]*entity.ScoreRecord, error) {
	if s.repo == nil {
		return nil, errors.New("score repository is not configured")
	}
	return s.repo.Best(ctx, since, limit)
}

// CollectImages собирает пути к изображениям в каталоге в стабильном порядке.
func CollectImages(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if imageExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *ScoringService) breakdown(path string) (entity.ScoreBreakdown, error) {
	start := time.Now()
	b, err := s.scorer.Breakdown(path)
	s.observe(b, time.Since(start), err)
	if err == nil {
		log.Debug().Str("path", path).Float64("score", b.Score).Msg("image scored")
	}
	return b, err
}

func (s *ScoringService) observe(b entity.ScoreBreakdown, took time.Duration, err error) {
	if s.observer == nil {
		return
	}
	if err != nil {
		s.observer.ObserveFailure(err)
		return
	}
	s.observer.ObserveScore(b, took)
}

func (s *ScoringService) save(ctx context.Context, rec *entity.ScoreRecord) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("save score for %s: %w", rec.Path, err)
	}
	return nil
}
