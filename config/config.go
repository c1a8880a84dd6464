package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

const devJWTSecret = "yamdb-dev-secret"

// LoadEnv reads the given dotenv files (".env" when none are given) into
// the process environment. Missing files are skipped and variables that
// are already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("YAMDB_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("YAMDB_DEBUG") == "true"
}

// GetLogFolder returns the folder for the log file. Empty disables file logging.
func GetLogFolder() string {
	return os.Getenv("YAMDB_LOG_FOLDER")
}

func GetListen() string {
	return os.Getenv("YAMDB_LISTEN")
}

// GetDomain returns the only Host the API answers to. Empty accepts any.
func GetDomain() string {
	return os.Getenv("YAMDB_DOMAIN")
}

func GetPort() int {
	return getEnvInt("YAMDB_PORT", 8000)
}

// GetCertFile and GetKeyFile name the TLS key pair. HTTPS is served only
// when both load.
func GetCertFile() string {
	return os.Getenv("YAMDB_CERT_FILE")
}

func GetKeyFile() string {
	return os.Getenv("YAMDB_KEY_FILE")
}

func GetRedisAddr() string {
	return os.Getenv("YAMDB_REDIS_ADDR")
}

func GetRedisPassword() string {
	return os.Getenv("YAMDB_REDIS_PASSWORD")
}

// GetJWTSecret returns the signing secret for bearer tokens. A fixed
// development secret is used when none is configured.
func GetJWTSecret() string {
	secret := os.Getenv("YAMDB_JWT_SECRET")
	if secret == "" {
		return devJWTSecret
	}
	return secret
}

// HasJWTSecret reports whether a signing secret was configured explicitly.
func HasJWTSecret() bool {
	return os.Getenv("YAMDB_JWT_SECRET") != ""
}

// CheckJWTSecret fails outside debug mode when no signing secret is set,
// since the development secret is public.
func CheckJWTSecret() error {
	if IsDebug() || HasJWTSecret() {
		return nil
	}
	return errors.New("YAMDB_JWT_SECRET must be set unless YAMDB_DEBUG=true")
}

func GetJWTTTL() time.Duration {
	return getEnvDuration("YAMDB_JWT_TTL", 24*time.Hour)
}

func GetConfirmationTTL() time.Duration {
	return getEnvDuration("YAMDB_CONFIRMATION_TTL", 24*time.Hour)
}

func GetPageSize() int {
	size := getEnvInt("YAMDB_PAGE_SIZE", 10)
	if size <= 0 {
		return 10
	}
	return size
}

// GetRateLimit returns the number of auth requests allowed per client
// address per minute. Zero disables rate limiting.
func GetRateLimit() int {
	return getEnvInt("YAMDB_RATE_LIMIT", 20)
}

func GetAuditRetentionDays() int {
	return getEnvInt("YAMDB_AUDIT_RETENTION_DAYS", 90)
}

func GetLang() string {
	lang := os.Getenv("YAMDB_LANG")
	if lang == "" {
		return "en"
	}
	return lang
}

// MailConfig selects and configures the outgoing mail backend.
type MailConfig struct {
	Backend  string
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func GetMailConfig() MailConfig {
	backend := os.Getenv("YAMDB_MAIL_BACKEND")
	if backend == "" {
		backend = "console"
	}
	from := os.Getenv("YAMDB_MAIL_FROM")
	if from == "" {
		from = "noreply@yamdb.local"
	}
	return MailConfig{
		Backend:  backend,
		Host:     os.Getenv("YAMDB_SMTP_HOST"),
		Port:     getEnvInt("YAMDB_SMTP_PORT", 587),
		Username: os.Getenv("YAMDB_SMTP_USERNAME"),
		Password: os.Getenv("YAMDB_SMTP_PASSWORD"),
		From:     from,
	}
}

func getEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
