package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one execution of the engine.
type Run struct {
	ID            uuid.UUID
	StartedAt     time.Time
	InitialScene  string
	TargetRate    float64
	FixedTimestep bool
}

// RunResult is written when a run ends.
type RunResult struct {
	FinishedAt time.Time
	Steps      uint64
	Simulated  time.Duration
	Err        error
}

// Sample is a snapshot taken after one step.
type Sample struct {
	Step       uint64
	Tick       uint64
	Simulated  time.Duration
	Scene      string
	Entities   int
	RecordedAt time.Time
}

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Begin inserts the run row.
func (r *RunRepo) Begin(ctx context.Context, run Run) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO runs (id, started_at, initial_scene, target_rate, fixed_timestep)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID.String(), run.StartedAt, run.InitialScene, run.TargetRate, run.FixedTimestep,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish records how the run ended.
func (r *RunRepo) Finish(ctx context.Context, id uuid.UUID, res RunResult) error {
	msg := ""
	if res.Err != nil {
		msg = res.Err.Error()
	}
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE runs SET finished_at = $2, steps = $3, simulated_ms = $4, error = $5
		 WHERE id = $1`,
		id.String(), res.FinishedAt, int64(res.Steps), millis(res.Simulated), msg,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// AppendSamples writes a batch of samples in a single transaction.
func (r *RunRepo) AppendSamples(ctx context.Context, runID uuid.UUID, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("samples begin: %w", err)
	}
	defer tx.Rollback(ctx)

	id := runID.String()
	for _, s := range samples {
		if _, err := tx.Exec(ctx,
			`INSERT INTO run_samples (run_id, step, tick, simulated_ms, scene, entities, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, int64(s.Step), int64(s.Tick), millis(s.Simulated), s.Scene, s.Entities, s.RecordedAt,
		); err != nil {
			return fmt.Errorf("samples insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
