// Package errors holds the error types shared by every module: validation
// failures that carry all offending items, and backing-store classification.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrUnauthenticated the request carries no usable session
var ErrUnauthenticated = errors.New("not authenticated")

// ValidationError a rejected input, listing every offending item at once.
//
// Kind distinguishes the rule that failed so callers can branch with Is:
//
//	errors.Is(err, &ValidationError{Kind: KindDuplicateNumbering})
type ValidationError struct {
	Kind   string
	Reason string
	Items  []string
}

// Validation kinds
const (
	KindMissingNumbering   = "missing_numbering"
	KindUnknownNumbering   = "unknown_numbering"
	KindDuplicateNumbering = "duplicate_numbering"
	KindReferenceMismatch  = "reference_mismatch"
	KindInvalidField       = "invalid_field"
)

// NewValidation builds a ValidationError
func NewValidation(kind, reason string, items ...string) *ValidationError {
	return &ValidationError{Kind: kind, Reason: reason, Items: items}
}

func (e *ValidationError) Error() string {
	if len(e.Items) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Items, ", "))
}

// Is matches another ValidationError of the same kind (an empty kind matches any)
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// AsValidation unwraps err into a ValidationError
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// ── backing store classification ──

const pgUniqueViolation = "23505"

// IsNotFound reports whether err is gorm's missing-row error
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// UniqueViolation returns the violated constraint name when err is a Postgres
// unique violation
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}
