package validator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yamdb/api-yamdb/web/entity"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
		reserved bool
		chars    []rune
	}{
		{name: "plain", username: "alice"},
		{name: "all allowed punctuation", username: "a.b@c+d-e_f"},
		{name: "digits only", username: "12345"},
		{name: "reserved me", username: "me", wantErr: true, reserved: true},
		{name: "uppercase ME is allowed", username: "ME"},
		{name: "space and bang", username: "bad name!", wantErr: true, chars: []rune{' ', '!'}},
		{name: "repeated offenders reported once", username: "a!b!c d e", wantErr: true, chars: []rune{' ', '!'}},
		{name: "non ascii letter", username: "jörg", wantErr: true, chars: []rune{'ö'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, entity.ErrInvalidUsername))

			var uerr *entity.UsernameError
			require.True(t, errors.As(err, &uerr))
			assert.Equal(t, tt.reserved, uerr.Reserved)
			if tt.chars != nil {
				assert.ElementsMatch(t, tt.chars, uerr.Chars)
			}
		})
	}
}

func TestValidateYear(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	v := New(clock)

	assert.NoError(t, v.ValidateYear(2024))
	assert.NoError(t, v.ValidateYear(1895))

	err := v.ValidateYear(2025)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrInvalidYear))
	var yerr *entity.YearError
	require.True(t, errors.As(err, &yerr))
	assert.Equal(t, 2024, yerr.Max)
}

func TestValidateYearReadsClockAtCallTime(t *testing.T) {
	now := time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)
	v := New(func() time.Time { return now })

	assert.Error(t, v.ValidateYear(2025))
	now = now.Add(2 * time.Minute)
	assert.NoError(t, v.ValidateYear(2025))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("a@x.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@x.com"))
}

func TestValidateSlug(t *testing.T) {
	assert.NoError(t, ValidateSlug("sci-fi_2"))
	assert.Error(t, ValidateSlug("sci fi"))
	assert.Error(t, ValidateSlug(""))
	assert.Error(t, ValidateSlug(strings.Repeat("a", MaxSlugLength+1)))
}

func TestValidateScore(t *testing.T) {
	for score := MinScore; score <= MaxScore; score++ {
		assert.NoError(t, ValidateScore(score))
	}
	assert.Error(t, ValidateScore(0))
	assert.Error(t, ValidateScore(11))
}

func TestCheckLength(t *testing.T) {
	assert.Empty(t, CheckLength("ok", 5))
	assert.NotEmpty(t, CheckLength("", 5))
	assert.NotEmpty(t, CheckLength("toolong", 5))
}
