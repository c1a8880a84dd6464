package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DatabaseType represents the type of database
type DatabaseType string

const (
	DatabaseTypeSQLite     DatabaseType = "sqlite"
	DatabaseTypePostgreSQL DatabaseType = "postgres"
)

// MemoryPath is the SQLite path of a private in-memory database.
const MemoryPath = ":memory:"

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type     DatabaseType   `json:"type"`
	SQLite   SQLiteConfig   `json:"sqlite"`
	Postgres PostgresConfig `json:"postgres"`
}

// SQLiteConfig holds SQLite specific configuration
type SQLiteConfig struct {
	Path string `json:"path"`
}

// PostgresConfig holds PostgreSQL specific configuration
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
	TimeZone string `json:"timeZone"`
}

// GetDSN returns the data source name for the database
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case DatabaseTypePostgreSQL:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
			c.Postgres.Host,
			c.Postgres.Username,
			c.Postgres.Password,
			c.Postgres.Database,
			c.Postgres.Port,
			c.Postgres.SSLMode,
			c.Postgres.TimeZone,
		)
	default:
		if c.SQLite.Path == MemoryPath {
			return MemoryPath + "?_foreign_keys=1"
		}
		return c.SQLite.Path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=1"
	}
}

// GetDatabaseConfig builds the database configuration from YAMDB_DB_* and
// YAMDB_PG_* variables.
func GetDatabaseConfig() *DatabaseConfig {
	cfg := &DatabaseConfig{
		Type: DatabaseType(strings.ToLower(os.Getenv("YAMDB_DB_TYPE"))),
		SQLite: SQLiteConfig{
			Path: os.Getenv("YAMDB_DB_PATH"),
		},
		Postgres: PostgresConfig{
			Host:     getEnvString("YAMDB_PG_HOST", "localhost"),
			Port:     getEnvInt("YAMDB_PG_PORT", 5432),
			Database: getEnvString("YAMDB_PG_DATABASE", "yamdb"),
			Username: getEnvString("YAMDB_PG_USER", "yamdb"),
			Password: os.Getenv("YAMDB_PG_PASSWORD"),
			SSLMode:  getEnvString("YAMDB_PG_SSLMODE", "disable"),
			TimeZone: getEnvString("YAMDB_PG_TIMEZONE", "UTC"),
		},
	}
	if cfg.Type == "" {
		cfg.Type = DatabaseTypeSQLite
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = getDefaultSQLitePath()
	}
	return cfg
}

// getDefaultSQLitePath returns the default SQLite database path
func getDefaultSQLitePath() string {
	if IsDebug() {
		return "db/yamdb.db"
	}
	return "/var/lib/yamdb/yamdb.db"
}

// ValidateConfig validates the database configuration
func (c *DatabaseConfig) ValidateConfig() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLite path cannot be empty")
		}
	case DatabaseTypePostgreSQL:
		if c.Postgres.Host == "" {
			return fmt.Errorf("PostgreSQL host cannot be empty")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("PostgreSQL database name cannot be empty")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			return fmt.Errorf("PostgreSQL port must be between 1 and 65535")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// IsPostgreSQL returns true if the database type is PostgreSQL
func (c *DatabaseConfig) IsPostgreSQL() bool {
	return c.Type == DatabaseTypePostgreSQL
}

// IsSQLite returns true if the database type is SQLite
func (c *DatabaseConfig) IsSQLite() bool {
	return c.Type == DatabaseTypeSQLite
}

// EnsureDirectoryExists ensures the directory for SQLite database exists
func (c *DatabaseConfig) EnsureDirectoryExists() error {
	if c.Type != DatabaseTypeSQLite || c.SQLite.Path == MemoryPath {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.SQLite.Path), 0o755)
}

func getEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
