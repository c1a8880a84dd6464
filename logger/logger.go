// Package logger wraps go-logging with a console backend, an optional file
// backend and a bounded in-memory buffer that admins can read over the API.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/op/go-logging"
	"github.com/yamdb/api-yamdb/config"
)

const (
	module           = "yamdb"
	maxLogBufferSize = 4096
	logFileName      = "yamdb.log"
	timeFormat       = "2006/01/02 15:04:05"
)

type entry struct {
	time  string
	level logging.Level
	log   string
}

var (
	logger  = logging.MustGetLogger(module)
	logFile *os.File

	bufferMu  sync.Mutex
	logBuffer []entry
)

// InitLogger replaces the default backend: console at the given level and,
// when YAMDB_LOG_FOLDER is set, a file that always receives DEBUG.
func InitLogger(level logging.Level) {
	backends := make([]logging.Backend, 0, 2)

	console := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), newFormatter(true))
	leveled := logging.AddModuleLevel(console)
	leveled.SetLevel(level, module)
	backends = append(backends, leveled)

	if fileBackend := initFileBackend(); fileBackend != nil {
		leveledFile := logging.AddModuleLevel(fileBackend)
		leveledFile.SetLevel(logging.DEBUG, module)
		backends = append(backends, leveledFile)
	}

	logger.SetBackend(logging.MultiLogger(backends...))
}

// ParseLevel maps a configured level name to a go-logging level, falling
// back to INFO for unknown names.
func ParseLevel(level config.LogLevel) logging.Level {
	switch level {
	case config.Debug:
		return logging.DEBUG
	case config.Notice:
		return logging.NOTICE
	case config.Warn:
		return logging.WARNING
	case config.Error:
		return logging.ERROR
	default:
		return logging.INFO
	}
}

func initFileBackend() logging.Backend {
	logDir := config.GetLogFolder()
	if logDir == "" {
		return nil
	}
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log folder %s: %v\n", logDir, err)
		return nil
	}

	logPath := filepath.Join(logDir, logFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", logPath, err)
		return nil
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file

	return logging.NewBackendFormatter(logging.NewLogBackend(file, "", 0), newFormatter(true))
}

func newFormatter(withTime bool) logging.Formatter {
	format := `%{level:.4s} - %{message}`
	if withTime {
		format = `%{time:` + timeFormat + `} %{level:.4s} - %{message}`
	}
	return logging.MustStringFormatter(format)
}

// CloseLogger closes the log file. Called during shutdown.
func CloseLogger() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func Debug(args ...any) {
	logger.Debug(args...)
	addToBuffer(logging.DEBUG, fmt.Sprint(args...))
}

func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
	addToBuffer(logging.DEBUG, fmt.Sprintf(format, args...))
}

func Info(args ...any) {
	logger.Info(args...)
	addToBuffer(logging.INFO, fmt.Sprint(args...))
}

func Infof(format string, args ...any) {
	logger.Infof(format, args...)
	addToBuffer(logging.INFO, fmt.Sprintf(format, args...))
}

func Notice(args ...any) {
	logger.Notice(args...)
	addToBuffer(logging.NOTICE, fmt.Sprint(args...))
}

func Noticef(format string, args ...any) {
	logger.Noticef(format, args...)
	addToBuffer(logging.NOTICE, fmt.Sprintf(format, args...))
}

func Warning(args ...any) {
	logger.Warning(args...)
	addToBuffer(logging.WARNING, fmt.Sprint(args...))
}

func Warningf(format string, args ...any) {
	logger.Warningf(format, args...)
	addToBuffer(logging.WARNING, fmt.Sprintf(format, args...))
}

func Error(args ...any) {
	logger.Error(args...)
	addToBuffer(logging.ERROR, fmt.Sprint(args...))
}

func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
	addToBuffer(logging.ERROR, fmt.Sprintf(format, args...))
}

func addToBuffer(level logging.Level, msg string) {
	bufferMu.Lock()
	defer bufferMu.Unlock()
	if len(logBuffer) >= maxLogBufferSize {
		logBuffer = logBuffer[1:]
	}
	logBuffer = append(logBuffer, entry{
		time:  time.Now().Format(timeFormat),
		level: level,
		log:   msg,
	})
}

// GetLogs returns up to c of the newest buffered entries that are at least
// as severe as level, newest first.
func GetLogs(c int, level string) []string {
	logLevel, err := logging.LogLevel(level)
	if err != nil {
		logLevel = logging.DEBUG
	}

	bufferMu.Lock()
	defer bufferMu.Unlock()
	output := make([]string, 0, c)
	for i := len(logBuffer) - 1; i >= 0 && len(output) < c; i-- {
		if logBuffer[i].level <= logLevel {
			output = append(output, fmt.Sprintf("%s %s - %s", logBuffer[i].time, logBuffer[i].level, logBuffer[i].log))
		}
	}
	return output
}
