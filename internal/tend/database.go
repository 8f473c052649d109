package tend

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/colonyops/tend/internal/core/config"
	"github.com/colonyops/tend/internal/data/db"
	"github.com/colonyops/tend/internal/data/stores"
)

// OpenDatabase opens the reference server's database in the configured data
// directory. A corrupt database file is moved aside and replaced once.
func OpenDatabase(cfg *config.Config, log zerolog.Logger) (*db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	opts := dbOptions(cfg)

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil {
		return database, nil
	}
	if !stores.IsCorruptionError(err) {
		return nil, err
	}

	backup, rerr := stores.RecoverFromCorruption(cfg.DataDir)
	if rerr != nil {
		return nil, fmt.Errorf("recover database: %w", rerr)
	}
	log.Warn().Err(err).Str("backup", backup).Msg("database is corrupt, starting fresh")

	return db.Open(cfg.DataDir, opts)
}

func dbOptions(cfg *config.Config) db.OpenOptions {
	return db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}
}
