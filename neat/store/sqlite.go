// Package store persists evolution runs in SQLite: per-generation history,
// named genomes and the latest population checkpoint of every run.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/baldhumanity/neat-breakout/neat"
)

// Run describes one recorded evolution run.
type Run struct {
	ID        string
	CreatedAt time.Time
}

// GenerationRecord summarizes one evaluated generation.
type GenerationRecord struct {
	Generation          int
	Species             int
	TotalAverageFitness float64
	BestFitness         float64
}

// SQLiteStore records runs in a SQLite database. It is safe for concurrent use.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database at path. Call Init before use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates missing tables. Calling it again is a no-op.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// CreateRun registers a new run and returns its id.
func (s *SQLiteStore) CreateRun(ctx context.Context) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx, `INSERT INTO runs (id, created_at) VALUES (?, ?)`, id, time.Now().UTC().Unix())
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

// Runs lists every run, oldest first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, created_at FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run     Run
			created int64
		)
		if err := rows.Scan(&run.ID, &created); err != nil {
			return nil, err
		}
		run.CreatedAt = time.Unix(created, 0).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordGeneration stores the summary of one generation, replacing any
// earlier record for the same generation.
func (s *SQLiteStore) RecordGeneration(ctx context.Context, runID string, rec GenerationRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, species, total_average_fitness, best_fitness)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			species = excluded.species,
			total_average_fitness = excluded.total_average_fitness,
			best_fitness = excluded.best_fitness
	`, runID, rec.Generation, rec.Species, rec.TotalAverageFitness, rec.BestFitness)
	return err
}

// History returns the generation records of a run in generation order.
func (s *SQLiteStore) History(ctx context.Context, runID string) ([]GenerationRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, species, total_average_fitness, best_fitness
		FROM generations WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []GenerationRecord
	for rows.Next() {
		var rec GenerationRecord
		if err := rows.Scan(&rec.Generation, &rec.Species, &rec.TotalAverageFitness, &rec.BestFitness); err != nil {
			return nil, err
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

// SaveGenome stores a genome under a label within a run.
func (s *SQLiteStore) SaveGenome(ctx context.Context, runID, label string, genome *neat.Genome) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := genome.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO genomes (run_id, label, fitness, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, label) DO UPDATE SET
			fitness = excluded.fitness,
			payload = excluded.payload
	`, runID, label, genome.Fitness, payload)
	return err
}

// GetGenome loads a labelled genome. It reports false when no such genome exists.
func (s *SQLiteStore) GetGenome(ctx context.Context, runID, label string) (*neat.Genome, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM genomes WHERE run_id = ? AND label = ?`, runID, label).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	genome, err := neat.DecodeGenome(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode genome %s/%s: %w", runID, label, err)
	}
	return genome, true, nil
}

// SaveCheckpoint replaces the stored checkpoint of a run.
func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, runID string, p *neat.Population) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := p.WriteCheckpoint(&buf); err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, generation, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			generation = excluded.generation,
			payload = excluded.payload
	`, runID, p.Generation, buf.Bytes())
	return err
}

// LoadCheckpoint restores the stored checkpoint of a run.
func (s *SQLiteStore) LoadCheckpoint(ctx context.Context, runID string, config *neat.Config, opts ...neat.Option) (*neat.Population, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM checkpoints WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	p, err := neat.ReadCheckpoint(bytes.NewReader(payload), config, opts...)
	if err != nil {
		return nil, false, fmt.Errorf("decode checkpoint %s: %w", runID, err)
	}
	return p, true, nil
}

// Close releases the database. The store may be initialized again afterwards.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			species INTEGER NOT NULL,
			total_average_fitness REAL NOT NULL,
			best_fitness REAL NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
		CREATE TABLE IF NOT EXISTS genomes (
			run_id TEXT NOT NULL,
			label TEXT NOT NULL,
			fitness REAL NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, label)
		);
		CREATE TABLE IF NOT EXISTS checkpoints (
			run_id TEXT PRIMARY KEY,
			generation INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
