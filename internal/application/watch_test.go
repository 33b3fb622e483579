package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"render-ranker/internal/domain/entity"
	"render-ranker/internal/infrastructure/storage"
)

func TestWatchService_ScoresReportedFrames(t *testing.T) {
	payload := &entity.RenderPayload{ID: "job-1", OutputDirectory: t.TempDir()}
	frames := payload.ProjectDir()
	require.NoError(t, os.MkdirAll(frames, 0o755))
	writeImage(t, frames, filepath.Base(payload.FramePath(1)), 4, 4, solid(black))
	writeImage(t, frames, filepath.Base(payload.FramePath(2)), 4, 4, solid(red))

	status := strings.Join([]string{
		`{"id":"job-1","frame":1}`,
		`not json`,
		``,
		`{"id":"job-2","frame":1}`,
		`{"id":"job-1","frame":2}`,
		`{"id":"job-1","frame":3}`,
	}, "\n")

	repo := storage.NewMemoryScoreRepository()
	watcher := NewWatchService(NewScoringService(newTestScorer(), repo, nil))

	var seen []int
	summary, err := watcher.Watch(context.Background(), payload, strings.NewReader(status), func(rec *entity.ScoreRecord) {
		seen = append(seen, rec.Frame)
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, seen)
	require.Equal(t, 2, summary.Scored)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 1, summary.Malformed)
	require.Equal(t, 1, summary.Foreign)
	require.NotNil(t, summary.Best)
	require.Equal(t, 2, summary.Best.Frame)
	require.Equal(t, payload.FramePath(2), summary.Best.Path)

	recs, err := repo.ByRender(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestWatchService_EmptyChannel(t *testing.T) {
	payload := &entity.RenderPayload{ID: "job-1", OutputDirectory: t.TempDir()}

	summary, err := NewWatchService(NewScoringService(newTestScorer(), nil, nil)).
		Watch(context.Background(), payload, strings.NewReader(""), nil)
	require.NoError(t, err)
	require.Zero(t, summary.Scored)
	require.Nil(t, summary.Best)
}

func TestWatchService_Cancelled(t *testing.T) {
	payload := &entity.RenderPayload{ID: "job-1", OutputDirectory: t.TempDir()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWatchService(NewScoringService(newTestScorer(), nil, nil)).
		Watch(ctx, payload, strings.NewReader(`{"id":"job-1","frame":1}`), nil)
	require.ErrorIs(t, err, context.Canceled)
}
