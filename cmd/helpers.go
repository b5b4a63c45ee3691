package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ziadkadry99/pkweb/internal/config"
	"github.com/ziadkadry99/pkweb/internal/db"
	"github.com/ziadkadry99/pkweb/internal/pkapi"
	"github.com/ziadkadry99/pkweb/internal/session"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `pkweb init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newAPIClient creates a PluralKit client from the api section of cfg.
func newAPIClient(cfg *config.Config) *pkapi.Client {
	return pkapi.New(pkapi.Options{
		Root:          cfg.API.Root,
		SystemPath:    cfg.API.SystemPath,
		MembersPath:   cfg.API.MembersPath,
		OwnSystemPath: cfg.API.OwnSystemPath,
		ExchangePath:  cfg.API.ExchangePath,
		Timeout:       cfg.API.Timeout,
		Logger:        logger,
	})
}

// openSessionStore opens the configured session backend. The returned
// close function releases it.
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	var (
		store   session.Store
		closeFn = func() {}
	)

	switch cfg.Session.Driver {
	case config.DriverMemory:
		store = session.NewMemoryStore()
	case config.DriverPostgres:
		pg, err := session.NewPostgresStore(ctx, cfg.Session.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres session store: %w", err)
		}
		store, closeFn = pg, pg.Close
	default:
		dbPath := filepath.Join(cfg.DataDir, "pkweb.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		store = session.NewSQLStore(database)
		closeFn = func() { database.Close() }
		logger.Debug("session database opened", zap.String("path", database.Path()))
	}

	if cfg.Session.Secret != "" {
		sealed, err := session.NewSealedStore(store, cfg.Session.Secret)
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("sealing session store: %w", err)
		}
		store = sealed
	}
	return store, closeFn, nil
}
