package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yamdb/api-yamdb/config"
)

func TestNewSelectsBackend(t *testing.T) {
	m, err := New(config.MailConfig{Backend: "console", From: "noreply@x.com"})
	require.NoError(t, err)
	assert.IsType(t, &ConsoleMailer{}, m)
	assert.NoError(t, m.Deliver(context.Background(), "subject", "body", "a@x.com"))

	_, err = New(config.MailConfig{Backend: "smtp"})
	assert.Error(t, err, "smtp without host")

	m, err = New(config.MailConfig{Backend: "smtp", Host: "localhost", Port: 2525, From: "noreply@x.com"})
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	_, err = New(config.MailConfig{Backend: "pigeon"})
	assert.Error(t, err)
}
