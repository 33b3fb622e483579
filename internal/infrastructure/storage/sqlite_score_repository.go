package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"render-ranker/internal/domain/entity"
	"render-ranker/internal/domain/port"
)

//go:embed sql/*
var ddl embed.FS

const selectScores = `SELECT id, render_id, frame, path, contrast, saturation, edge_energy, symmetry, score, scored_at FROM scores`

// SQLiteScoreRepository хранит историю оценок в SQLite.
type SQLiteScoreRepository struct {
	db *sql.DB
}

// NewSQLiteScoreRepository открывает базу по пути и создаёт схему, если её нет.
func NewSQLiteScoreRepository(path string) (*SQLiteScoreRepository, error) {
	if path == "" {
		return nil, errors.New("database path not specified")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// sqlite не любит параллельную запись из нескольких соединений
	db.SetMaxOpenConns(1)

	b, err := ddl.ReadFile("sql/ddl.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.Exec(string(b)); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema in %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("score database ready")

	return &SQLiteScoreRepository{db: db}, nil
}

// Close закрывает соединение.
func (r *SQLiteScoreRepository) Close() error {
	return r.db.Close()
}

// Save сохраняет оценку.
func (r *SQLiteScoreRepository) Save(ctx context.Context, rec *entity.ScoreRecord) error {
	b := rec.Breakdown
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scores (id, render_id, frame, path, contrast, saturation, edge_energy, symmetry, score, scored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RenderID, rec.Frame, rec.Path,
		b.Contrast, b.Saturation, b.EdgeEnergy, b.Symmetry, b.Score,
		rec.ScoredAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert score %s: %w", rec.ID, err)
	}
	return nil
}

// Best возвращает лучшие оценки не старше since.
func (r *SQLiteScoreRepository) Best(ctx context.Context, since time.Time, limit int) ([]*entity.ScoreRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	from := int64(math.MinInt64)
	if !since.IsZero() {
		from = since.UnixNano()
	}
	rows, err := r.db.QueryContext(ctx,
		selectScores+` WHERE scored_at >= ? ORDER BY score DESC, path ASC LIMIT ?`,
		from, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query best scores: %w", err)
	}
	return scanRecords(rows)
}

// ByRender возвращает оценки кадров рендера по убыванию.
func (r *SQLiteScoreRepository) ByRender(ctx context.Context, renderID string) ([]*entity.ScoreRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		selectScores+` WHERE render_id = ? ORDER BY score DESC, path ASC`,
		renderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query render %s: %w", renderID, err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*entity.ScoreRecord, error) {
	defer rows.Close()

	var out []*entity.ScoreRecord
	for rows.Next() {
		var (
			rec      entity.ScoreRecord
			scoredAt int64
		)
		b := &rec.Breakdown
		if err := rows.Scan(&rec.ID, &rec.RenderID, &rec.Frame, &rec.Path,
			&b.Contrast, &b.Saturation, &b.EdgeEnergy, &b.Symmetry, &b.Score, &scoredAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		rec.ScoredAt = time.Unix(0, scoredAt).UTC()
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return out, nil
}

var _ port.ScoreRepository = (*SQLiteScoreRepository)(nil)
