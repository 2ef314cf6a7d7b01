package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ironsheep/labelscan/internal/nutrition"
	"github.com/ironsheep/labelscan/internal/scoring"
)

// ErrNotFound is returned when no accepted result has the requested ID.
var ErrNotFound = errors.New("result not found")

// DefaultListLimit caps ListResults when the caller passes no limit.
const DefaultListLimit = 50

// AcceptedResult is the frozen outcome of one verification session. Only
// accepted sessions are ever written.
type AcceptedResult struct {
	ID          string             `json:"id"`
	Barcode     string             `json:"barcode,omitempty"`
	ConfigIndex int                `json:"config_index"`
	ConfigName  string             `json:"config_name"`
	Record      nutrition.Record   `json:"record"`
	Metadata    nutrition.Metadata `json:"metadata"`
	Score       scoring.Result     `json:"score"`
	AcceptedAt  time.Time          `json:"accepted_at"`
}

// SQLiteStore keeps accepted results in an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath. Use ":memory:"
// for a throwaway store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS accepted_results (
        id TEXT PRIMARY KEY,
        barcode TEXT NOT NULL,
        config_index INTEGER NOT NULL,
        config_name TEXT NOT NULL,
        policy TEXT NOT NULL,
        grade TEXT NOT NULL,
        nova_group INTEGER NOT NULL,
        record TEXT NOT NULL,
        metadata TEXT NOT NULL,
        score TEXT NOT NULL,
        accepted_at TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_results_accepted_at ON accepted_results(accepted_at);
    CREATE INDEX IF NOT EXISTS idx_results_barcode ON accepted_results(barcode);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SaveResult writes r. Saving an ID twice is an error; accepted sessions are
// immutable.
func (s *SQLiteStore) SaveResult(ctx context.Context, r *AcceptedResult) error {
	record, err := json.Marshal(r.Record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	score, err := json.Marshal(r.Score)
	if err != nil {
		return fmt.Errorf("failed to encode score: %w", err)
	}

	query := `
        INSERT INTO accepted_results (id, barcode, config_index, config_name, policy, grade,
            nova_group, record, metadata, score, accepted_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.Barcode, r.ConfigIndex, r.ConfigName, r.Score.Policy, string(r.Score.Grade),
		r.Score.NovaGroup, string(record), string(metadata), string(score),
		r.AcceptedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	return nil
}

// GetResult returns the result with the given ID or ErrNotFound.
func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*AcceptedResult, error) {
	query := `
        SELECT id, barcode, config_index, config_name, record, metadata, score, accepted_at
        FROM accepted_results
        WHERE id = ?
    `
	r, err := scanResult(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// ListResults returns the most recently accepted results first. A barcode
// filter restricts the list to one product; limit <= 0 selects
// DefaultListLimit.
func (s *SQLiteStore) ListResults(ctx context.Context, barcode string, limit int) ([]*AcceptedResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
        SELECT id, barcode, config_index, config_name, record, metadata, score, accepted_at
        FROM accepted_results
        WHERE 1=1
    `
	args := []interface{}{}

	if barcode != "" {
		query += " AND barcode = ?"
		args = append(args, barcode)
	}

	query += " ORDER BY accepted_at DESC, id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []*AcceptedResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	return results, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row scanner) (*AcceptedResult, error) {
	r := &AcceptedResult{}
	var record, metadata, score, acceptedAt string

	err := row.Scan(&r.ID, &r.Barcode, &r.ConfigIndex, &r.ConfigName,
		&record, &metadata, &score, &acceptedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan result: %w", err)
	}

	if err := json.Unmarshal([]byte(record), &r.Record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &r.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(score), &r.Score); err != nil {
		return nil, fmt.Errorf("failed to decode score: %w", err)
	}
	if r.AcceptedAt, err = time.Parse(time.RFC3339Nano, acceptedAt); err != nil {
		return nil, fmt.Errorf("failed to parse accepted_at: %w", err)
	}

	return r, nil
}
