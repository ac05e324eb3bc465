package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Migrate applies every pending migration found at the root of fsys.
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS, logger *zap.Logger) (int64, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(zapGooseLogger{logger.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	logger.Info("database migrated", zap.Int64("version", version))
	return version, nil
}

type zapGooseLogger struct {
	s *zap.SugaredLogger
}

func (l zapGooseLogger) Fatalf(format string, v ...interface{}) { l.s.Errorf(format, v...) }

func (l zapGooseLogger) Printf(format string, v ...interface{}) { l.s.Infof(format, v...) }
