package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	app "render-ranker/internal/application"
	"render-ranker/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я оцениваю рендеры.

📸 Отправьте картинку, и я посчитаю контраст, насыщенность, плотность границ и симметрию.

📋 Команды:
/score — оценить картинку
/best — лучшие рендеры за сутки
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как считается оценка:

score = 0.4·контраст + 0.2·насыщенность + 0.3·границы + 0.1·симметрия

1️⃣ Отправьте /score
2️⃣ Пришлите картинку (фото или файлом, чтобы не терять качество)
3️⃣ Получите разбивку по метрикам`

	msgAwaitingImage  = "📸 Пришлите картинку для оценки."
	msgCancelled      = "❌ Операция отменена. Отправьте /score для новой оценки."
	msgSendScore      = "📸 Сначала отправьте /score, затем картинку."
	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgScoring        = "⏳ Считаю оценку..."
	msgScoringError   = "⚠️ Не удалось прочитать изображение. Пришлите PNG или JPEG."
	msgNoScores       = "Пока нет оценённых рендеров за сутки."
	msgNotAnImage     = "⚠️ Этот файл не похож на изображение."
)

// bestWindow окно для команды /best
const bestWindow = 24 * time.Hour

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	sessions *app.SessionService
	scoring  *app.ScoringService
	client   *http.Client
}

// NewBot создаёт нового бота
func NewBot(token string, sessions *app.SessionService, scoring *app.ScoringService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info().Str("account", api.Self.UserName).Msg("authorized")

	return &Bot{
		api:      api,
		sessions: sessions,
		scoring:  scoring,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	session, err := b.sessions.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.Error().Err(err).Int64("user", msg.From.ID).Msg("get session")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	fileID, ok := imageFileID(msg)
	if !ok {
		if msg.Document != nil {
			b.sendMessage(msg.Chat.ID, msgNotAnImage)
			return
		}
		b.sendMessage(msg.Chat.ID, msgSendScore)
		return
	}

	if !session.AcceptsImage() {
		b.sendMessage(msg.Chat.ID, msgSendScore)
		return
	}
	b.handleImage(ctx, msg, fileID)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	var err error
	switch msg.Command() {
	case "start":
		_, err = b.sessions.Cancel(ctx, msg.From.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "score":
		_, err = b.sessions.BeginScoring(ctx, msg.From.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgAwaitingImage)

	case "cancel":
		_, err = b.sessions.Cancel(ctx, msg.From.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	case "best":
		b.sendMessage(msg.Chat.ID, b.bestText(ctx))

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
	if err != nil {
		log.Error().Err(err).Str("command", msg.Command()).Msg("update session")
	}
}

// handleImage скачивает картинку, оценивает её и отвечает разбивкой
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, fileID string) {
	if _, err := b.sessions.SetState(ctx, msg.From.ID, msg.Chat.ID, entity.StateScoring); err != nil {
		log.Error().Err(err).Msg("update session")
	}

	b.sendMessage(msg.Chat.ID, msgScoring)

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		log.Error().Err(err).Str("file", fileID).Msg("download image")
		b.resetSession(ctx, msg.From.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgScoringError)
		return
	}

	breakdown, err := b.scoreUpload(ctx, msg.From.ID, msg.Chat.ID, fileID, data)
	if err != nil {
		b.sendMessage(msg.Chat.ID, msgScoringError)
		return
	}

	b.sendMessage(msg.Chat.ID, FormatBreakdown(breakdown))
}

// scoreUpload оценивает скачанную картинку. В счётчик сессии попадает только успешная оценка.
func (b *Bot) scoreUpload(ctx context.Context, userID, chatID int64, fileID string, data []byte) (entity.ScoreBreakdown, error) {
	breakdown, err := b.scoring.ScoreBytes(ctx, fileID, data)
	if err != nil {
		log.Warn().Err(err).Int("bytes", len(data)).Msg("score upload")
		b.resetSession(ctx, userID, chatID)
		return breakdown, err
	}

	if _, err := b.sessions.FinishScoring(ctx, userID, chatID); err != nil {
		log.Error().Err(err).Msg("update session")
	}
	return breakdown, nil
}

// resetSession возвращает сессию в ожидание команды без засчитывания оценки
func (b *Bot) resetSession(ctx context.Context, userID, chatID int64) {
	if _, err := b.sessions.Cancel(ctx, userID, chatID); err != nil {
		log.Error().Err(err).Msg("update session")
	}
}

// bestText собирает ответ на /best
func (b *Bot) bestText(ctx context.Context) string {
	recs, err := b.scoring.Best(ctx, time.Now().Add(-bestWindow), 5)
	if err != nil || len(recs) == 0 {
		if err != nil {
			log.Warn().Err(err).Msg("best scores")
		}
		return msgNoScores
	}

	var sb strings.Builder
	sb.WriteString("🏆 Лучшие рендеры за сутки:\n")
	for i, rec := range recs {
		fmt.Fprintf(&sb, "%d. %s — %.2f\n", i+1, rec.Path, rec.Breakdown.Score)
	}
	return sb.String()
}

// imageFileID выбирает файл из сообщения: самое большое фото или документ-картинку
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("download file: unexpected status " + resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("send message")
	}
}

// FormatBreakdown текст с разбивкой оценки
func FormatBreakdown(b entity.ScoreBreakdown) string {
	return fmt.Sprintf("📊 Оценка: %.2f\n• контраст: %.2f\n• насыщенность: %.2f\n• границы: %.2f\n• симметрия: %.3f",
		b.Score, b.Contrast, b.Saturation, b.EdgeEnergy, b.Symmetry)
}
