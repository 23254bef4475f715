package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/NouctheCo/Casskai-sub005/internal/engine"
	"github.com/NouctheCo/Casskai-sub005/internal/storage"
)

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "casskai", "casskai.db")
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// requireCompany reads the company identifier shared by every command.
func requireCompany() (string, error) {
	company := viper.GetString("company")
	if company == "" {
		return "", fmt.Errorf("company identifier required (--company flag or CASSKAI_COMPANY)")
	}
	return company, nil
}

// resolverConfig reads the resolver settings, falling back to the defaults.
func resolverConfig() engine.Config {
	cfg := engine.DefaultConfig()
	if v := viper.GetString("accounting.standard"); v != "" {
		cfg.AccountingStandard = v
	}
	if v := viper.GetString("accounting.country"); v != "" {
		cfg.Country = v
	}
	if v := viper.GetFloat64("resolver.similarity_threshold"); v > 0 {
		cfg.SimilarityThreshold = v
	}
	if v := viper.GetInt("resolver.recent_limit"); v > 0 {
		cfg.RecentLimit = v
	}
	return cfg
}

// newResolver wires the resolver with an optional generative collaborator.
// A missing API key degrades to cache-plus-keywords resolution.
func newResolver(ctx context.Context, store *storage.SQLiteStorage, logger *slog.Logger) (*engine.Resolver, func(), error) {
	generator, err := createTextGenerator(ctx, logger)
	if err != nil {
		logger.Warn("text generation unavailable, resolving from cache and keywords only", "error", err)
		return engine.NewWithConfig(store, nil, logger, resolverConfig()), func() {}, nil
	}

	resolver := engine.NewWithConfig(store, generator, logger, resolverConfig())
	return resolver, func() { _ = generator.Close() }, nil
}
