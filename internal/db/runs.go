package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const runColumns = `id, tagger, format, items, strict, COALESCE(date_key, ''), COALESCE(source, ''), input_hash, tally, created_at`

// SaveRun records a consensus run and returns its ID
func (db *DB) SaveRun(ctx context.Context, in *RunInput) (uuid.UUID, error) {
	if in == nil || in.Tally == nil {
		return uuid.Nil, fmt.Errorf("failed to save run: missing tally")
	}
	tallyJSON, err := json.Marshal(in.Tally.Entries)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal tally: %w", err)
	}

	id := uuid.New()
	_, err = db.pool.Exec(ctx,
		`INSERT INTO consensus_runs (id, tagger, format, items, strict, date_key, source, input_hash, tally)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		id, in.Tagger, in.Tally.Winner().Format, in.Tally.Total, in.Strict, in.DateKey, in.Source, in.InputHash, tallyJSON,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save run: %w", err)
	}
	return id, nil
}

// GetRun retrieves a consensus run by ID, or nil when it does not exist
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM consensus_runs WHERE id = $1`, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves recent runs, newest first
func (db *DB) ListRuns(ctx context.Context, filters RunFilters) ([]Run, error) {
	query, args := listRunsQuery(filters)
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// DeleteRun deletes a consensus run
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM consensus_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

func listRunsQuery(filters RunFilters) (string, []any) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultRunLimit
	}

	query := `SELECT ` + runColumns + ` FROM consensus_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Tagger != "" {
		query += fmt.Sprintf(" AND tagger = $%d", argNum)
		args = append(args, filters.Tagger)
		argNum++
	}
	if filters.Format != "" {
		query += fmt.Sprintf(" AND format = $%d", argNum)
		args = append(args, filters.Format)
		argNum++
	}
	if filters.InputHash != "" {
		query += fmt.Sprintf(" AND input_hash = $%d", argNum)
		args = append(args, filters.InputHash)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)
	return query, args
}

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	var tallyJSON []byte
	if err := row.Scan(&run.ID, &run.Tagger, &run.Format, &run.Items, &run.Strict,
		&run.DateKey, &run.Source, &run.InputHash, &tallyJSON, &run.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tallyJSON, &run.Tally); err != nil {
		return nil, fmt.Errorf("failed to decode tally: %w", err)
	}
	return &run, nil
}
