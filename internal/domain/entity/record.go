package entity

import (
	"time"

	"github.com/google/uuid"
)

// ScoreRecord сохранённая оценка изображения.
type ScoreRecord struct {
	ID        string         `json:"id" yaml:"id"`
	RenderID  string         `json:"render_id,omitempty" yaml:"render_id,omitempty"`
	Frame     int            `json:"frame,omitempty" yaml:"frame,omitempty"`
	Path      string         `json:"path" yaml:"path"`
	Breakdown ScoreBreakdown `json:"breakdown" yaml:"breakdown"`
	ScoredAt  time.Time      `json:"scored_at" yaml:"scored_at"`
}

// NewScoreRecord создаёт запись с новым идентификатором и текущим временем.
func NewScoreRecord(path string, b ScoreBreakdown) *ScoreRecord {
	return &ScoreRecord{
		ID:        uuid.NewString(),
		Path:      path,
		Breakdown: b,
		ScoredAt:  time.Now().UTC(),
	}
}

// WithFrame привязывает запись к кадру рендера.
func (r *ScoreRecord) WithFrame(renderID string, frame int) *ScoreRecord {
	r.RenderID = renderID
	r.Frame = frame
	return r
}
