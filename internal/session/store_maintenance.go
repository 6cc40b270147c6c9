package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// CountByStatus returns a count of sessions grouped by status.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	ctx = dbContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Summary aggregates session counts for diagnostic output.
type Summary struct {
	Total      int
	Waiting    int
	Processing int
	HumanStep  int
	Uploaded   int
	Failed     int
}

// Summarize buckets the per-status counts into the Summary groups.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	stats, err := s.CountByStatus(ctx)
	if err != nil {
		return Summary{}, err
	}
	health := Summary{}
	for status, count := range stats {
		health.Total += count
		switch {
		case status == StatusUploaded:
			health.Uploaded += count
		case status == StatusFailed:
			health.Failed += count
		case status.IsProcessing():
			health.Processing += count
		case status.IsHumanStep():
			health.HumanStep += count
		default:
			health.Waiting += count
		}
	}
	return health, nil
}

// Remove deletes a session row. The caller is responsible for cleaning up the
// workspace directory. Returns true when a row was removed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	ctx = dbContext(ctx)
	res, err := s.execRetry(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// PruneUploaded removes uploaded sessions and returns the count.
func (s *Store) PruneUploaded(ctx context.Context) (int64, error) {
	return s.clearByStatus(ctx, StatusUploaded, "clear completed sessions")
}

// PruneFailed removes failed sessions and returns the count.
func (s *Store) PruneFailed(ctx context.Context) (int64, error) {
	return s.clearByStatus(ctx, StatusFailed, "clear failed sessions")
}

func (s *Store) clearByStatus(ctx context.Context, status Status, op string) (int64, error) {
	ctx = dbContext(ctx)
	res, err := s.execRetry(ctx, `DELETE FROM sessions WHERE status = ?`, status)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected()
}

// DBHealth carries diagnostic information about the session database.
type DBHealth struct {
	DBPath        string
	FileExists    bool
	Readable      bool
	SchemaReady   bool
	TotalSessions int
	IntegrityOK   bool
	Error         string
}

// InspectDB inspects the database file and schema. The check command
// renders the result alongside the preflight checks.
func (s *Store) InspectDB(ctx context.Context) (DBHealth, error) {
	health := DBHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("session database path is unknown")
	}

	switch info, err := os.Stat(s.path); {
	case errors.Is(err, os.ErrNotExist):
		return health, nil
	case err != nil:
		return health, fmt.Errorf("stat session database: %w", err)
	case info.IsDir():
		return health, fmt.Errorf("session database path %q is a directory", s.path)
	}
	health.FileExists = true

	if s.db == nil {
		return health, errors.New("session database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(dbContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping session database: %w", err)
	}
	health.Readable = true

	exists, err := s.sessionsTableExists(connCtx)
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("query table info: %w", err)
	}
	health.SchemaReady = exists

	if exists {
		if err := s.db.QueryRowContext(connCtx, `SELECT COUNT(*) FROM sessions`).Scan(&health.TotalSessions); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count sessions: %w", err)
		}
	}

	var integrity string
	if err := s.db.QueryRowContext(connCtx, `PRAGMA integrity_check`).Scan(&integrity); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityOK = strings.EqualFold(integrity, "ok")

	return health, nil
}

func (s *Store) sessionsTableExists(ctx context.Context) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'sessions'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
