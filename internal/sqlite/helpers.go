package sqlite

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// newUUID generates a UUID v7 for entity IDs.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// timestampLayouts are the createdAt formats found on disk, newest first.
// Rows written by the first releases used JavaScript ISO strings.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// formatTime renders t the way every timestamp column is written.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime reads a stored timestamp. Unparseable or missing values yield
// the zero time rather than failing the read of an otherwise valid row.
func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s.String); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// nullable maps an empty optional string to NULL.
func nullable(p *string) any {
	if p == nil || *p == "" {
		return nil
	}
	return *p
}

// ptr returns a pointer to s.String, or nil when s is NULL.
func ptr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// emptyAsNull stores an empty string as NULL.
func emptyAsNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRow(query string, args ...any) *sql.Row
}
