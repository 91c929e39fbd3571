package store

import (
	"context"
	"fmt"

	"github.com/roach88/fluxseq/internal/canon"
)

// WriteRun records a run and its trace in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - writing an existing run
// ID leaves the stored record untouched.
//
// Returns the run's seq and whether this call inserted it.
func (s *Store) WriteRun(ctx context.Context, run Run) (int64, bool, error) {
	errs := make([]any, len(run.Errors))
	for i, e := range run.Errors {
		errs[i] = e
	}
	errorsJSON, err := canon.MarshalCanonical(errs)
	if err != nil {
		return 0, false, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return 0, false, fmt.Errorf("write run: next seq: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, pass, seq, errors)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Scenario, boolToInt(run.Pass), seq, string(errorsJSON))
	if err != nil {
		return 0, false, fmt.Errorf("write run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("write run: %w", err)
	}
	if affected == 0 {
		var existing int64
		if err := tx.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, run.ID).Scan(&existing); err != nil {
			return 0, false, fmt.Errorf("write run: read existing: %w", err)
		}
		return existing, false, nil
	}

	for _, e := range run.Events {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_events (run_id, seq, kind, value, message)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, e.Seq, e.Kind, e.Value, e.Message)
		if err != nil {
			return 0, false, fmt.Errorf("write run event %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("write run: commit: %w", err)
	}
	return seq, true, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
