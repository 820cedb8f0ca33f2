package table

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"tractcoords/internal/models"
)

// schema.sql defines one row per extraction run and one row per tract per run.
//
//go:embed schema.sql
var schemaSQL string

// ErrNoRuns is returned by LatestRun on an empty store.
var ErrNoRuns = errors.New("no extraction runs stored")

// Store keeps coordinate tables from successive extraction runs in SQLite.
type Store struct {
	*sql.DB
}

// OpenStore opens (or creates) the database at path and applies the schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db}, nil
}

// SaveRun records t under a new run id in a single transaction.
func (s *Store) SaveRun(ctx context.Context, atlasPath string, t Table) (uuid.UUID, error) {
	id := uuid.New()

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, atlas_path, created_at) VALUES (?, ?, ?)`,
		id.String(), atlasPath, time.Now().UnixNano(),
	); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tract_coordinates (
			run_id, position, roi,
			start_x, start_y, start_z,
			end_x, end_y, end_z,
			centroid_x, centroid_y, centroid_z
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return uuid.Nil, err
	}
	defer stmt.Close()

	for i, r := range t {
		f := r.Fields()
		if _, err := stmt.ExecContext(ctx, id.String(), i, r.ROI,
			f[0], f[1], f[2], f[3], f[4], f[5], f[6], f[7], f[8],
		); err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert tract %s: %w", r.ROI, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}

	zerolog.Ctx(ctx).Debug().Str("component", "table").
		Str("run_id", id.String()).Int("rows", len(t)).Msg("stored run")
	return id, nil
}

// LoadRun returns the table stored for run id in its original row order.
func (s *Store) LoadRun(ctx context.Context, id uuid.UUID) (Table, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT roi,
			start_x, start_y, start_z,
			end_x, end_y, end_z,
			centroid_x, centroid_y, centroid_z
		FROM tract_coordinates
		WHERE run_id = ?
		ORDER BY position
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", id, err)
	}
	defer rows.Close()

	var t Table
	for rows.Next() {
		var roi string
		var f [models.NumCoordinates]float64
		if err := rows.Scan(&roi, &f[0], &f[1], &f[2], &f[3], &f[4], &f[5], &f[6], &f[7], &f[8]); err != nil {
			return nil, err
		}
		t = append(t, models.TractRowFromFields(roi, f))
	}
	return t, rows.Err()
}

// LatestRun returns the id of the most recently stored run.
func (s *Store) LatestRun(ctx context.Context) (uuid.UUID, error) {
	var raw string
	err := s.QueryRowContext(ctx,
		`SELECT id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrNoRuns
	}
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(raw)
}
