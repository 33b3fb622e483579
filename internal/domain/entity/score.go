package entity

// Веса итоговой оценки. Совпадают с весами уже отранжированного корпуса рендеров.
const (
	ContrastWeight   = 0.4
	SaturationWeight = 0.2
	EdgeWeight       = 0.3
	SymmetryWeight   = 0.1
)

// Пороги детектора границ (шкала 0..255).
const (
	EdgeLowThreshold  = 100
	EdgeHighThreshold = 200
)

// ScoreBreakdown хранит метрики изображения и итоговую оценку.
type ScoreBreakdown struct {
	Contrast   float64 `json:"contrast" yaml:"contrast"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
	EdgeEnergy float64 `json:"edge_energy" yaml:"edge_energy"`
	Symmetry   float64 `json:"symmetry" yaml:"symmetry"`
	Score      float64 `json:"score" yaml:"score"`
}

// NewScoreBreakdown собирает разбивку и считает взвешенную сумму.
func NewScoreBreakdown(contrast, saturation, edgeEnergy, symmetry float64) ScoreBreakdown {
	return ScoreBreakdown{
		Contrast:   contrast,
		Saturation: saturation,
		EdgeEnergy: edgeEnergy,
		Symmetry:   symmetry,
		Score:      Combine(contrast, saturation, edgeEnergy, symmetry),
	}
}

// Combine возвращает взвешенную сумму четырёх метрик.
func Combine(contrast, saturation, edgeEnergy, symmetry float64) float64 {
	return ContrastWeight*contrast + SaturationWeight*saturation + EdgeWeight*edgeEnergy + SymmetryWeight*symmetry
}

// ScoredImage оценённый кандидат.
type ScoredImage struct {
	Path      string         `json:"path" yaml:"path"`
	Breakdown ScoreBreakdown `json:"breakdown" yaml:"breakdown"`
}

// ScoreFailure кандидат, который не удалось оценить.
type ScoreFailure struct {
	Path string `json:"path" yaml:"path"`
	Err  error  `json:"-" yaml:"-"`
	// Reason текст ошибки для вывода в json/yaml
	Reason string `json:"reason" yaml:"reason"`
}

// Ranking результат ранжирования пачки кандидатов.
type Ranking struct {
	Candidates []ScoredImage  `json:"candidates" yaml:"candidates"`
	Failures   []ScoreFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Top возвращает до n лучших кандидатов.
func (r *Ranking) Top(n int) []ScoredImage {
	if n <= 0 || n > len(r.Candidates) {
		n = len(r.Candidates)
	}
	return r.Candidates[:n]
}

// Best возвращает лучшего кандидата, если он есть.
func (r *Ranking) Best() (ScoredImage, bool) {
	if len(r.Candidates) == 0 {
		return ScoredImage{}, false
	}
	return r.Candidates[0], true
}
