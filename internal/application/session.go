package app

import (
	"context"

	"render-ranker/internal/domain/entity"
	"render-ranker/internal/domain/port"
)

// SessionService ведёт диалоги пользователей с ботом.
type SessionService struct {
	repo port.SessionRepository
}

// NewSessionService создаёт сервис поверх хранилища сессий.
func NewSessionService(repo port.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

// Get возвращает сессию, создавая новую при первом обращении.
func (s *SessionService) Get(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// SetState переводит сессию в состояние state.
func (s *SessionService) SetState(ctx context.Context, userID, chatID int64, state entity.SessionState) (*entity.Session, error) {
	return s.update(ctx, userID, chatID, func(session *entity.Session) {
		session.SetState(state)
	})
}

// BeginScoring ждёт от пользователя картинку.
func (s *SessionService) BeginScoring(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingImage)
}

// Cancel сбрасывает сессию в ожидание команды, счётчик оценок не меняется.
func (s *SessionService) Cancel(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, userID, chatID, entity.StateIdle)
}

// FinishScoring засчитывает успешно оценённую картинку и возвращает сессию
// в ожидание команды. После неудачной оценки вызывается Cancel.
func (s *SessionService) FinishScoring(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.update(ctx, userID, chatID, func(session *entity.Session) {
		session.Scored++
		session.SetState(entity.StateIdle)
	})
}

func (s *SessionService) update(ctx context.Context, userID, chatID int64, apply func(*entity.Session)) (*entity.Session, error) {
	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	apply(session)
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}
