package container

import (
	app "render-ranker/internal/application"
	"render-ranker/internal/domain/port"
	"render-ranker/internal/infrastructure/imageio"
	"render-ranker/internal/infrastructure/vision"
)

type Container struct {
	Scorer         *app.Scorer
	ScoringService *app.ScoringService
	WatchService   *app.WatchService
	SessionService *app.SessionService
}

// New собирает сервисы. scores, sessions и observer могут быть nil.
func New(scores port.ScoreRepository, sessions port.SessionRepository, observer port.ScoreObserver) *Container {
	scorer := NewDefaultScorer()
	scoringService := app.NewScoringService(scorer, scores, observer)

	c := &Container{
		Scorer:         scorer,
		ScoringService: scoringService,
		WatchService:   app.NewWatchService(scoringService),
	}
	if sessions != nil {
		c.SessionService = app.NewSessionService(sessions)
	}
	return c
}

// NewDefaultScorer оценщик с файловым загрузчиком и анализатором по тегу сборки.
func NewDefaultScorer() *app.Scorer {
	return app.NewScorer(imageio.NewFileLoader(), vision.NewDefaultAnalyzer())
}

// ScoreImage оценивает изображение по пути.
func ScoreImage(path string) (float64, error) {
	return NewDefaultScorer().Score(path)
}
