package logger

import (
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/yamdb/api-yamdb/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logging.DEBUG, ParseLevel(config.Debug))
	assert.Equal(t, logging.WARNING, ParseLevel(config.Warn))
	assert.Equal(t, logging.INFO, ParseLevel("verbose"))
}

func TestGetLogs(t *testing.T) {
	t.Setenv("YAMDB_LOG_FOLDER", "")
	InitLogger(logging.ERROR)

	Info("first")
	Warningf("second %d", 2)
	Error("third")

	logs := GetLogs(10, "WARNING")
	if assert.GreaterOrEqual(t, len(logs), 2) {
		assert.Contains(t, logs[0], "third")
		assert.Contains(t, logs[1], "second 2")
	}
	for _, line := range logs {
		assert.NotContains(t, line, "first")
	}
	assert.Len(t, GetLogs(1, "DEBUG"), 1)
}
