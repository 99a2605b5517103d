package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is wrapped by every lookup that finds no row.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is wrapped when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate")

	// ErrBatchExpired is wrapped when a sale names a batch past its expiry date.
	ErrBatchExpired = errors.New("batch expired")
)

// ValidationError reports one invalid field. Line is 1-based for line items
// and 0 for the document header.
type ValidationError struct {
	Line    int    `json:"line"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Message)
}

// ValidationErrors collects every problem found before anything is written.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// LineError reports the line and step at which a transactional write failed.
// The whole operation has been rolled back when a LineError is returned.
type LineError struct {
	Line int
	Step string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Step, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

func lineErr(line int, step string, err error) error {
	return &LineError{Line: line, Step: step, Err: err}
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	_, ok := uniqueViolation(err)
	return ok
}

// uniqueViolation returns the violated constraint when err is a PostgreSQL
// unique_violation.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

func toPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
