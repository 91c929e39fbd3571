package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ReadRun returns the run with the given ID including its trace.
// Returns ErrRunNotFound if no such run exists.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, pass, seq, errors
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	run.Events, err = s.readRunEvents(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns every run of a scenario, or every run if scenario is
// empty, including traces.
// Results are ordered deterministically: ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]Run, error) {
	query := `
		SELECT id, scenario, pass, seq, errors
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	args := []any{}
	if scenario != "" {
		query = `
		SELECT id, scenario, pass, seq, errors
		FROM runs
		WHERE scenario = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
		args = append(args, scenario)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		runs[i].Events, err = s.readRunEvents(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// LatestRun returns the most recent run of a scenario.
// Returns ErrRunNotFound if the scenario has no runs.
func (s *Store) LatestRun(ctx context.Context, scenario string) (Run, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM runs
		WHERE scenario = ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, scenario).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run of %s: %w", scenario, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run of %s: %w", scenario, err)
	}
	return s.ReadRun(ctx, id)
}

func (s *Store) readRunEvents(ctx context.Context, runID string) ([]RunEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, value, message
		FROM run_events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run events: %w", err)
	}
	defer rows.Close()

	events := []RunEvent{}
	for rows.Next() {
		var e RunEvent
		if err := rows.Scan(&e.Seq, &e.Kind, &e.Value, &e.Message); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run events: %w", err)
	}
	return events, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		pass       int
		errorsJSON string
	)
	if err := row.Scan(&run.ID, &run.Scenario, &pass, &run.Seq, &errorsJSON); err != nil {
		return Run{}, err
	}
	run.Pass = pass == 1

	if err := json.Unmarshal([]byte(errorsJSON), &run.Errors); err != nil {
		return Run{}, fmt.Errorf("unmarshal run errors: %w", err)
	}
	if run.Errors == nil {
		run.Errors = []string{}
	}
	return run, nil
}
