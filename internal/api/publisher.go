package telegram

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"render-ranker/internal/domain/entity"
	"render-ranker/internal/domain/port"
)

// sender часть tgbotapi.BotAPI, которая нужна публикатору
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Publisher отправляет лучший рендер в канал или чат Telegram
type Publisher struct {
	api    sender
	chatID int64
}

// NewPublisher создаёт публикатор для чата chatID
func NewPublisher(api sender, chatID int64) *Publisher {
	return &Publisher{api: api, chatID: chatID}
}

// Publish отправляет картинку с подписью-разбивкой
func (p *Publisher) Publish(ctx context.Context, rec *entity.ScoreRecord) error {
	if rec == nil {
		return errors.New("nothing to publish")
	}
	if p.chatID == 0 {
		return errors.New("telegram chat id is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(p.chatID, tgbotapi.FilePath(rec.Path))
	photo.Caption = PublishCaption(rec)
	if _, err := p.api.Send(photo); err != nil {
		return fmt.Errorf("publish %s: %w", rec.Path, err)
	}

	log.Info().Str("path", rec.Path).Float64("score", rec.Breakdown.Score).Int64("chat", p.chatID).Msg("render published")
	return nil
}

// PublishCaption подпись к публикуемому рендеру
func PublishCaption(rec *entity.ScoreRecord) string {
	name := filepath.Base(rec.Path)
	if rec.RenderID != "" {
		name = fmt.Sprintf("%s, кадр %d", rec.RenderID, rec.Frame)
	}
	return fmt.Sprintf("🏆 %s\n%s", name, FormatBreakdown(rec.Breakdown))
}

var _ port.Publisher = (*Publisher)(nil)
