package archive

import (
	"context"
	"database/sql"
	"time"

	"nriva-scraper/services/archive/db"

	_ "modernc.org/sqlite"
)

// Ledger is an append-only record of past runs and the profiles they
// persisted. It is an audit trail across runs; the idempotence marker
// stays the profile directory on disk.
type Ledger struct {
	db *sql.DB
}

func OpenLedger(path string) (*Ledger, error) {
	sqlite, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		sqlite.Close()
		return nil, err
	}
	return &Ledger{db: sqlite}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) RecordRun(ctx context.Context, summary Summary) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO runs (started_at, finished_at, criteria, candidates, persisted, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		summary.StartedAt.Format(time.RFC3339),
		summary.FinishedAt.Format(time.RFC3339),
		summary.Criteria.Slug(),
		summary.Candidates,
		len(summary.Persisted),
		summary.Skipped,
		summary.Failed,
	)
	if err != nil {
		return err
	}
	runId, err := result.LastInsertId()
	if err != nil {
		return err
	}

	for _, profile := range summary.Persisted {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO profiles (run_id, profile_key, profile_id, display_profile_id, name, directory)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runId,
			profile.FolderKey(),
			profile.ProfileId,
			profile.DisplayProfileId,
			profile.Name,
			summary.ProfileDir(profile),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
