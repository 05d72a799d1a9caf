package database

import (
	"fmt"
	"os"
	"path/filepath"

	"license-key-service/internal/model"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models lists every table the service owns, in migration order.
var Models = []any{
	&model.Application{},
	&model.LicenseKey{},
	&model.LicenseUsage{},
	&model.OperationLog{},
}

// Open connects to the SQLite database at path, creating its directory if
// needed, and migrates the schema.
func Open(path string, log *zap.Logger, production bool) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	level := gormlogger.Info
	if production {
		level = gormlogger.Warn
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger:         NewZapGormLogger(log, level, !production),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log.Info("database ready", zap.String("path", path))
	return db, nil
}

// dsn enables WAL and foreign keys for path. Transactions begin IMMEDIATE so
// a transaction that reads before it writes waits on busy_timeout for the
// write lock instead of failing on a stale snapshot.
func dsn(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
}
