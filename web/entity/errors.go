package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidUsername         = errors.New("invalid username")
	ErrInvalidYear             = errors.New("invalid year")
	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")
	ErrIdentityConflict        = errors.New("username and email belong to different users")
	ErrDuplicateReview         = errors.New("review for this title already exists")
	ErrNotFound                = errors.New("not found")
	ErrPermissionDenied        = errors.New("permission denied")
	ErrValidation              = errors.New("validation failed")

	// ErrNotAuthenticated is the permission denial for anonymous actors.
	ErrNotAuthenticated = fmt.Errorf("%w: authentication required", ErrPermissionDenied)
)

// UsernameError explains why a username was rejected.
type UsernameError struct {
	Username string
	Reserved bool
	Chars    []rune
}

func (e *UsernameError) Error() string {
	if e.Reserved {
		return fmt.Sprintf("username %q is reserved", e.Username)
	}
	quoted := make([]string, len(e.Chars))
	for i, c := range e.Chars {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return "username contains forbidden characters: " + strings.Join(quoted, ", ")
}

func (e *UsernameError) Unwrap() error {
	return ErrInvalidUsername
}

// YearError reports a release year later than the current one.
type YearError struct {
	Year int
	Max  int
}

func (e *YearError) Error() string {
	return fmt.Sprintf("year %d is later than the current year %d", e.Year, e.Max)
}

func (e *YearError) Unwrap() error {
	return ErrInvalidYear
}

// ValidationError maps request fields to their problems.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Err returns e, or nil when no field was reported.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
