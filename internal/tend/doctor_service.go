package tend

import (
	"context"

	"github.com/colonyops/tend/internal/core/config"
	"github.com/colonyops/tend/internal/core/doctor"
	"github.com/colonyops/tend/internal/core/todo"
	"github.com/colonyops/tend/internal/data/db"
	"github.com/colonyops/tend/internal/data/stores"
)

// DoctorService runs health checks on the tend setup.
type DoctorService struct {
	config *config.Config
	remote todo.Remote
}

// NewDoctorService creates a new DoctorService.
func NewDoctorService(cfg *config.Config, remote todo.Remote) *DoctorService {
	return &DoctorService{config: cfg, remote: remote}
}

// RunChecks executes all doctor checks and returns results.
func (d *DoctorService) RunChecks(ctx context.Context, configPath string, autofix bool) []doctor.Result {
	dataDir := d.config.DataDir

	openDB := func() error {
		database, err := db.Open(dataDir, dbOptions(d.config))
		if err != nil {
			return err
		}
		return database.Close()
	}
	recoverDB := func() error {
		_, err := stores.RecoverFromCorruption(dataDir)
		return err
	}

	checks := []doctor.Check{
		doctor.NewConfigCheck(d.config, configPath),
		doctor.NewStorageCheck(dataDir, db.FileName, openDB, recoverDB, autofix),
		doctor.NewRemoteCheck(d.remote, d.config.Remote.BaseURL),
	}
	return doctor.RunAll(ctx, checks)
}
