package cache

import (
	"fmt"

	"go.uber.org/zap"
)

// migrateProgressEvery controls how often migration logs progress.
const migrateProgressEvery = 100

// MigrateOptions configures a migration run.
type MigrateOptions struct {
	Progress bool
	Logger   *zap.Logger
}

// MigrateResult reports how a migration went.
type MigrateResult struct {
	Migrated int
	Failed   int
}

// ValidateMigrationPair rejects backend pairs without a concrete
// implementation. Only text and sqlite can take part in a migration.
func ValidateMigrationPair(from, to Kind) error {
	for _, k := range []Kind{from, to} {
		switch k {
		case KindText, KindSQLite:
		default:
			return fmt.Errorf("backend %q is not supported for migration", k)
		}
	}
	if from == to {
		return fmt.Errorf("source and destination backends are both %q", from)
	}
	return nil
}

// Migrate copies every entry from src into dst in ascending id order.
// Only the identity fields travel: the destination assigns fresh ids,
// counts and timestamps, so migrated entries restart confirmation.
// Entries that fail to insert (for example, hash collisions with
// existing destination rows) are counted and skipped.
func Migrate(src, dst *Cache, opts MigrateOptions) (MigrateResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Snapshot the source under its read lock, then insert with only
	// the destination lock held. No thread ever holds both cache locks.
	var entries []Entry
	err := src.ForEach(func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return MigrateResult{}, fmt.Errorf("reading source backend: %w", err)
	}

	var result MigrateResult
	for _, e := range entries {
		if err := dst.Add(e.FromLang, e.ToLang, e.SourceText, e.TranslatedText); err != nil {
			logger.Warn("entry migration failed",
				zap.Int64("id", e.ID), zap.String("hash", e.Hash), zap.Error(err))
			result.Failed++
			continue
		}
		result.Migrated++

		if opts.Progress && result.Migrated%migrateProgressEvery == 0 {
			logger.Info("migration progress",
				zap.Int("migrated", result.Migrated), zap.Int("total", len(entries)))
		}
	}

	if err := dst.Save(); err != nil {
		return result, fmt.Errorf("saving destination backend: %w", err)
	}

	logger.Info("migration finished",
		zap.Int("migrated", result.Migrated), zap.Int("failed", result.Failed))
	return result, nil
}
