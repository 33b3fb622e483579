package telegram

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	app "render-ranker/internal/application"
	"render-ranker/internal/domain/entity"
	"render-ranker/internal/infrastructure/imageio"
	"render-ranker/internal/infrastructure/storage"
	"render-ranker/internal/infrastructure/vision"
)

func newTestBot() *Bot {
	scorer := app.NewScorer(imageio.NewFileLoader(), vision.NewNativeAnalyzer())
	return &Bot{
		sessions: app.NewSessionService(storage.NewMemorySessionRepository()),
		scoring:  app.NewScoringService(scorer, nil, nil),
	}
}

func redPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestBot_ScoreUploadCountsOnlySuccess(t *testing.T) {
	b := newTestBot()
	ctx := context.Background()

	_, err := b.sessions.SetState(ctx, 5, 50, entity.StateScoring)
	require.NoError(t, err)
	_, err = b.scoreUpload(ctx, 5, 50, "broken", []byte("not an image"))
	require.Error(t, err)

	s, err := b.sessions.Get(ctx, 5, 50)
	require.NoError(t, err)
	require.Equal(t, entity.StateIdle, s.State)
	require.Zero(t, s.Scored)

	_, err = b.sessions.SetState(ctx, 5, 50, entity.StateScoring)
	require.NoError(t, err)
	breakdown, err := b.scoreUpload(ctx, 5, 50, "red", redPNG(t))
	require.NoError(t, err)
	require.Equal(t, 255.0, breakdown.Saturation)

	s, err = b.sessions.Get(ctx, 5, 50)
	require.NoError(t, err)
	require.Equal(t, entity.StateIdle, s.State)
	require.Equal(t, 1, s.Scored)
}
