package entity

// SessionState состояние диалога с ботом
type SessionState string

const (
	StateIdle          SessionState = "idle"           // Ждём команду
	StateAwaitingImage SessionState = "awaiting_image" // Ждём картинку для оценки
	StateScoring       SessionState = "scoring"        // Идёт оценка
)

// Session диалог пользователя с ботом
type Session struct {
	UserID int64        // Telegram User ID
	ChatID int64        // Telegram Chat ID
	State  SessionState // Текущее состояние
	Scored int          // Сколько картинок оценено в этом диалоге
}

// NewSession создаёт сессию в начальном состоянии
func NewSession(userID, chatID int64) *Session {
	return &Session{
		UserID: userID,
		ChatID: chatID,
		State:  StateIdle,
	}
}

// SetState обновляет состояние
func (s *Session) SetState(state SessionState) {
	s.State = state
}

// AcceptsImage сообщает, ждёт ли сессия картинку
func (s *Session) AcceptsImage() bool {
	return s.State == StateAwaitingImage
}
