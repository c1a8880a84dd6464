package database

import (
	"errors"
	"strings"

	"github.com/yamdb/api-yamdb/config"
	"github.com/yamdb/api-yamdb/database/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func initModels(db *gorm.DB) error {
	if err := db.SetupJoinTable(&model.Title{}, "Genres", &model.GenreTitle{}); err != nil {
		return err
	}
	models := []any{
		&model.User{},
		&model.Category{},
		&model.Genre{},
		&model.Title{},
		&model.GenreTitle{},
		&model.Review{},
		&model.Comment{},
		&model.AuditLog{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return err
		}
	}
	// The unique pair spans Review.TitleId and the embedded Feedback.AuthorId,
	// so it cannot be declared with struct tags.
	return db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_review_title_author ON reviews (title_id, author_id)").Error
}

// Open connects to the configured database and migrates the schema.
// SQLite is limited to one open connection so writers are serialised.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectoryExists(); err != nil {
		return nil, err
	}

	var gormLogger logger.Interface
	if config.IsDebug() {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	var dialector gorm.Dialector
	if cfg.IsPostgreSQL() {
		dialector = postgres.Open(cfg.GetDSN())
	} else {
		dialector = sqlite.Open(cfg.GetDSN())
	}

	conn, err := gorm.Open(dialector, c)
	if err != nil {
		return nil, err
	}

	if cfg.IsSQLite() {
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA foreign_keys = ON;",
			"PRAGMA cache_size = -64000;",
			"PRAGMA temp_store = MEMORY;",
		} {
			if _, err := sqlDB.Exec(pragma); err != nil {
				return nil, err
			}
		}
	}

	if err := initModels(conn); err != nil {
		_ = closeConn(conn)
		return nil, err
	}
	return conn, nil
}

// InitDB opens the process-wide database handle returned by GetDB.
func InitDB(cfg *config.DatabaseConfig) error {
	conn, err := Open(cfg)
	if err != nil {
		return err
	}
	db = conn
	return nil
}

func CloseDB() error {
	if db == nil {
		return nil
	}
	err := closeConn(db)
	db = nil
	return err
}

func closeConn(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return db
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports a unique constraint violation. Drivers that gorm
// cannot translate are matched on their message.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
