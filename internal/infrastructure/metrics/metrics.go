package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"render-ranker/internal/domain/entity"
	"render-ranker/internal/domain/port"
)

// Registry метрики оценки изображений.
type Registry struct {
	registry *prometheus.Registry

	ImagesScored  prometheus.Counter
	ImagesFailed  *prometheus.CounterVec
	ScoreValue    prometheus.Histogram
	ScoreDuration prometheus.Histogram
	LastScore     *prometheus.GaugeVec
}

// NewRegistry создаёт и регистрирует все метрики в отдельном реестре.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		ImagesScored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "render_ranker_images_scored_total",
				Help: "Total number of images scored",
			},
		),

		ImagesFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "render_ranker_images_failed_total",
				Help: "Total number of images that could not be scored by error kind",
			},
			[]string{"kind"},
		),

		ScoreValue: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "render_ranker_score",
				Help:    "Distribution of composite image scores",
				Buckets: []float64{1, 5, 10, 20, 30, 40, 50, 60, 80, 100, 150},
			},
		),

		ScoreDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "render_ranker_score_duration_seconds",
				Help:    "Time spent decoding and scoring one image",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
		),

		LastScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "render_ranker_last_metric",
				Help: "Sub-metrics of the most recently scored image",
			},
			[]string{"metric"},
		),
	}

	r.registry.MustRegister(r.ImagesScored, r.ImagesFailed, r.ScoreValue, r.ScoreDuration, r.LastScore)
	return r
}

// ObserveScore учитывает успешную оценку.
func (r *Registry) ObserveScore(b entity.ScoreBreakdown, took time.Duration) {
	r.ImagesScored.Inc()
	r.ScoreValue.Observe(b.Score)
	r.ScoreDuration.Observe(took.Seconds())
	r.LastScore.WithLabelValues("contrast").Set(b.Contrast)
	r.LastScore.WithLabelValues("saturation").Set(b.Saturation)
	r.LastScore.WithLabelValues("edge_energy").Set(b.EdgeEnergy)
	r.LastScore.WithLabelValues("symmetry").Set(b.Symmetry)
	r.LastScore.WithLabelValues("score").Set(b.Score)
}

// ObserveFailure учитывает ошибку с разбивкой по типу.
func (r *Registry) ObserveFailure(err error) {
	r.ImagesFailed.WithLabelValues(errorKind(err)).Inc()
}

// Handler отдаёт метрики в формате Prometheus.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve поднимает /metrics на addr до отмены контекста.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func errorKind(err error) string {
	var loadErr *entity.LoadError
	var formatErr *entity.FormatError
	switch {
	case errors.As(err, &loadErr):
		return "load"
	case errors.As(err, &formatErr):
		return "format"
	default:
		return "other"
	}
}

var _ port.ScoreObserver = (*Registry)(nil)
