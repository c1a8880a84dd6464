// Package validator holds the field rules shared by signup, user
// management and catalogue writes.
package validator

import (
	"fmt"
	"regexp"
	"slices"
	"time"
	"unicode/utf8"

	playground "github.com/go-playground/validator/v10"
	"github.com/yamdb/api-yamdb/web/entity"
)

const (
	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MaxNameLength     = 256
	MaxSlugLength     = 50
	MinScore          = 1
	MaxScore          = 10

	reservedUsername = "me"
)

var (
	slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	fields      = playground.New()
)

// Clock returns the current time.
type Clock func() time.Time

// Validator holds the rules that depend on the current time.
type Validator struct {
	now Clock
}

// New returns a Validator reading time from now, or time.Now when nil.
func New(now Clock) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// CurrentYear is the calendar year at call time.
func (v *Validator) CurrentYear() int {
	return v.now().Year()
}

// ValidateYear rejects years after the current one.
func (v *Validator) ValidateYear(year int) error {
	if current := v.CurrentYear(); year > current {
		return &entity.YearError{Year: year, Max: current}
	}
	return nil
}

func usernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case '_', '.', '@', '+', '-':
		return true
	}
	return false
}

// ValidateUsername rejects the reserved name "me" and any name containing
// characters outside [A-Za-z0-9_.@+-]. The offending characters are
// reported once each, in ascending order.
func ValidateUsername(username string) error {
	if username == reservedUsername {
		return &entity.UsernameError{Username: username, Reserved: true}
	}
	var bad []rune
	for _, r := range username {
		if !usernameRune(r) && !slices.Contains(bad, r) {
			bad = append(bad, r)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	slices.Sort(bad)
	return &entity.UsernameError{Username: username, Chars: bad}
}

// ValidateEmail checks the address syntax and length.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return fmt.Errorf("ensure this field has no more than %d characters", MaxEmailLength)
	}
	if err := fields.Var(email, "email"); err != nil {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// ValidateSlug checks the slug alphabet and length.
func ValidateSlug(slug string) error {
	if utf8.RuneCountInString(slug) > MaxSlugLength {
		return fmt.Errorf("ensure this field has no more than %d characters", MaxSlugLength)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("enter a valid slug consisting of letters, numbers, underscores or hyphens")
	}
	return nil
}

// ValidateScore checks that score lies in [MinScore, MaxScore].
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("score must be between %d and %d", MinScore, MaxScore)
	}
	return nil
}

// CheckLength reports a problem when s is empty or longer than max runes.
func CheckLength(s string, max int) string {
	switch n := utf8.RuneCountInString(s); {
	case n == 0:
		return "this field may not be blank"
	case n > max:
		return fmt.Sprintf("ensure this field has no more than %d characters", max)
	}
	return ""
}
