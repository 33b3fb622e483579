package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"render-ranker/internal/domain/entity"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestPublisher_Publish(t *testing.T) {
	fake := &fakeSender{}
	p := NewPublisher(fake, 42)

	rec := entity.NewScoreRecord("/renders/abc/frame_00003.png", entity.NewScoreBreakdown(10, 20, 5, 0.9)).WithFrame("abc", 3)
	require.NoError(t, p.Publish(context.Background(), rec))
	require.Len(t, fake.sent, 1)

	photo, ok := fake.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	require.Equal(t, int64(42), photo.ChatID)
	require.Equal(t, tgbotapi.FilePath(rec.Path), photo.File)
	require.True(t, strings.Contains(photo.Caption, "abc, кадр 3"))
}

func TestPublisher_Errors(t *testing.T) {
	rec := entity.NewScoreRecord("a.png", entity.ScoreBreakdown{})

	require.Error(t, NewPublisher(&fakeSender{}, 0).Publish(context.Background(), rec))
	require.Error(t, NewPublisher(&fakeSender{}, 1).Publish(context.Background(), nil))
	require.Error(t, NewPublisher(&fakeSender{err: errors.New("flood")}, 1).Publish(context.Background(), rec))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, NewPublisher(&fakeSender{}, 1).Publish(ctx, rec), context.Canceled)
}

func TestFormatBreakdown(t *testing.T) {
	text := FormatBreakdown(entity.NewScoreBreakdown(0, 0, 0, 1))
	require.True(t, strings.HasPrefix(text, "📊 Оценка: 0.10"))
	require.Contains(t, text, "симметрия: 1.000")
}

func TestImageFileID(t *testing.T) {
	_, ok := imageFileID(&tgbotapi.Message{})
	require.False(t, ok)

	id, ok := imageFileID(&tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}})
	require.True(t, ok)
	require.Equal(t, "large", id)

	id, ok = imageFileID(&tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", MimeType: "image/png"}})
	require.True(t, ok)
	require.Equal(t, "doc", id)

	_, ok = imageFileID(&tgbotapi.Message{Document: &tgbotapi.Document{FileID: "pdf", MimeType: "application/pdf"}})
	require.False(t, ok)
}
