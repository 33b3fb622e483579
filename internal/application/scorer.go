package app

import (
	"math"

	"render-ranker/internal/domain/entity"
	"render-ranker/internal/domain/port"
)

// Scorer считает оценку качества изображения. Состояния между вызовами нет,
// поэтому один экземпляр можно использовать из нескольких горутин.
type Scorer struct {
	loader   port.ImageLoader
	analyzer port.Analyzer
}

// NewScorer создаёт оценщик поверх загрузчика и анализатора.
func NewScorer(loader port.ImageLoader, analyzer port.Analyzer) *Scorer {
	return &Scorer{loader: loader, analyzer: analyzer}
}

// Score возвращает итоговую оценку изображения по пути.
func (s *Scorer) Score(path string) (float64, error) {
	b, err := s.Breakdown(path)
	if err != nil {
		return 0, err
	}
	return b.Score, nil
}

// Breakdown загружает файл и возвращает все четыре метрики.
func (s *Scorer) Breakdown(path string) (entity.ScoreBreakdown, error) {
	img, err := s.loader.Load(path)
	if err != nil {
		return entity.ScoreBreakdown{}, err
	}
	return s.Evaluate(path, img)
}

// BreakdownBytes то же, что Breakdown, для изображения в памяти.
func (s *Scorer) BreakdownBytes(name string, data []byte) (entity.ScoreBreakdown, error) {
	img, err := s.loader.Decode(name, data)
	if err != nil {
		return entity.ScoreBreakdown{}, err
	}
	return s.Evaluate(name, img)
}

// Evaluate считает метрики уже декодированного растра.
func (s *Scorer) Evaluate(name string, img *entity.Raster) (entity.ScoreBreakdown, error) {
	gray, err := s.analyzer.Grayscale(img)
	if err != nil {
		return entity.ScoreBreakdown{}, &entity.FormatError{Path: name, Reason: "grayscale", Err: err}
	}
	_, sat, _, err := s.analyzer.HSV(img)
	if err != nil {
		return entity.ScoreBreakdown{}, &entity.FormatError{Path: name, Reason: "hsv", Err: err}
	}
	edges, err := s.analyzer.Edges(gray, entity.EdgeLowThreshold, entity.EdgeHighThreshold)
	if err != nil {
		return entity.ScoreBreakdown{}, &entity.FormatError{Path: name, Reason: "edges", Err: err}
	}

	return entity.NewScoreBreakdown(
		stdDev(gray.Pix),
		mean(sat.Pix),
		float64(edges.Sum())/float64(len(edges.Pix)),
		Symmetry(img),
	), nil
}

// Symmetry сравнивает левую половину (первые w/2 столбцов) с зеркально
// отражённой правой (все остальные столбцы). При нечётной ширине правая половина
// на столбец шире, и её последний после отражения столбец (средний) остаётся без пары.
func Symmetry(img *entity.Raster) float64 {
	half := img.Width / 2
	if half == 0 {
		return 1
	}

	var total uint64
	for y := 0; y < img.Height; y++ {
		row := img.Pix[y*img.Width*3 : (y+1)*img.Width*3]
		for x := 0; x < half; x++ {
			left := row[x*3 : x*3+3]
			mirrored := row[(img.Width-1-x)*3 : (img.Width-x)*3]
			for c := 0; c < 3; c++ {
				total += absDiff(left[c], mirrored[c])
			}
		}
	}

	meanDiff := float64(total) / float64(img.Height*half*3)
	return 1 - meanDiff/255.0
}

func mean(pix []uint8) float64 {
	if len(pix) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range pix {
		sum += uint64(v)
	}
	return float64(sum) / float64(len(pix))
}

// stdDev стандартное отклонение генеральной совокупности.
func stdDev(pix []uint8) float64 {
	if len(pix) == 0 {
		return 0
	}
	m := mean(pix)
	var acc float64
	for _, v := range pix {
		d := float64(v) - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(pix)))
}

func absDiff(a, b uint8) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}
