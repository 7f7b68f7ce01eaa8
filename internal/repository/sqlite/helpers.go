package sqlite

import (
	"database/sql"
	"time"

	"roadviz/internal/domain"
)

// Timestamps are stored as unix milliseconds

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullToTimePtr converts a nullable millisecond column to *time.Time
func nullToTimePtr(ni sql.NullInt64) *time.Time {
	if !ni.Valid {
		return nil
	}
	t := fromMillis(ni.Int64)
	return &t
}

// timePtrToNull converts *time.Time to a nullable millisecond column
func timePtrToNull(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var (
		run      domain.Run
		source   sql.NullString
		status   string
		started  int64
		finished sql.NullInt64
	)
	err := row.Scan(&run.ID, &run.Graph, &source, &run.Seed, &run.NodeCount,
		&run.Emitted, &status, &started, &finished)
	if err != nil {
		return nil, err
	}

	run.Source = nullToString(source)
	run.Status = domain.RunStatus(status)
	run.StartedAt = fromMillis(started)
	run.FinishedAt = nullToTimePtr(finished)
	return &run, nil
}
