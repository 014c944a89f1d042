// Package datastore is the engine's Metadata Store (spec.md §4.G, §6.3):
// a single embedded SQLite file indexing songs, stems, setlists and
// app settings, opened with the same WAL/pragma tuning the teacher repo
// uses for its own SQLite backend.
package datastore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/backline-audio/engine/internal/apperr"
	"github.com/backline-audio/engine/internal/model"
)

// Store wraps a gorm.DB bound to one SQLite file (or ":memory:" for tests).
type Store struct {
	DB   *gorm.DB
	path string
}

// Open creates the directory, opens the database, applies pragmas, and
// auto-migrates the schema with gorm's AutoMigrate, which only adds missing
// tables, columns and indexes, so re-running Open on an unchanged schema
// changes nothing. The migrations table is created, but Open writes no rows
// to it and there are no numbered migration steps.
func Open(dbPath string, debug bool) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, apperr.New(err).
				Component(apperr.ComponentDatastore).
				Category(apperr.CategoryStore).
				Kind(apperr.KindIoError).
				Context("directory", filepath.Dir(dbPath)).
				Build()
		}
	}

	gormCfg := &gorm.Config{Logger: newGormLogger(debug)}
	db, err := gorm.Open(sqlite.Open(dbPath), gormCfg)
	if err != nil {
		return nil, apperr.New(err).
			Component(apperr.ComponentDatastore).
			Category(apperr.CategoryStore).
			Kind(apperr.KindStoreCorrupt).
			Context("db_path", dbPath).
			Build()
	}

	if dbPath != ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, apperr.New(err).Component(apperr.ComponentDatastore).Category(apperr.CategoryStore).Build()
		}
		for _, pragma := range []string{
			"PRAGMA foreign_keys=ON",
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			"PRAGMA cache_size=-4000",
			"PRAGMA temp_store=MEMORY",
		} {
			if _, err := sqlDB.Exec(pragma); err != nil {
				log.Warn("failed to set pragma", "pragma", pragma, "error", err)
			}
		}
	} else {
		// in-memory SQLite still needs foreign keys on for cascade tests.
		db.Exec("PRAGMA foreign_keys=ON")
	}

	if err := db.AutoMigrate(
		&model.Song{}, &model.Stem{}, &model.Setlist{}, &model.SetlistItem{},
		&model.AppSetting{}, &model.Migration{},
	); err != nil {
		return nil, apperr.New(err).
			Component(apperr.ComponentDatastore).
			Category(apperr.CategoryStore).
			Kind(apperr.KindStoreCorrupt).
			Build()
	}

	log.Info("datastore opened", "path", dbPath)
	return &Store{DB: db, path: dbPath}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return apperr.New(err).Component(apperr.ComponentDatastore).Category(apperr.CategoryStore).Build()
	}
	return sqlDB.Close()
}

// Optimize runs ANALYZE then VACUUM, aborting early if ctx is cancelled
// between steps.
func (s *Store) Optimize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperr.New(err).Component(apperr.ComponentDatastore).Category(apperr.CategoryTimeout).Build()
	}
	start := time.Now()
	if err := s.DB.WithContext(ctx).Exec("ANALYZE").Error; err != nil {
		return apperr.New(err).Component(apperr.ComponentDatastore).Category(apperr.CategoryStore).Context("stage", "analyze").Build()
	}
	if err := ctx.Err(); err != nil {
		return apperr.New(err).Component(apperr.ComponentDatastore).Category(apperr.CategoryTimeout).Build()
	}
	if err := s.DB.WithContext(ctx).Exec("VACUUM").Error; err != nil {
		return apperr.New(err).Component(apperr.ComponentDatastore).Category(apperr.CategoryStore).Context("stage", "vacuum").Build()
	}
	log.Info("datastore optimized", "duration", time.Since(start))
	return nil
}

func wrapGormErr(err error, op string) error {
	if err == nil {
		return nil
	}
	kind := apperr.KindIoError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		kind = apperr.KindNotFound
	case isUniqueConstraintErr(err):
		kind = apperr.KindUniqueViolation
	}
	return apperr.New(err).
		Component(apperr.ComponentDatastore).
		Category(apperr.CategoryStore).
		Kind(kind).
		Context("operation", op).
		Build()
}

func isUniqueConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint &&
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
