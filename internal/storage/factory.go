// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/frqc/data-generation/internal/config"
	"github.com/frqc/data-generation/internal/logging"
	"github.com/frqc/data-generation/internal/run"
	diskstorage "github.com/frqc/data-generation/internal/storage/disk"
	postgresstorage "github.com/frqc/data-generation/internal/storage/postgres"
	sqlitestorage "github.com/frqc/data-generation/internal/storage/sqlite"
)

// Dependencies holds the shared collaborators backends need.
type Dependencies struct {
	LogManager *logging.SlogManager
	RunContext *run.Context
	Diag       zerolog.Logger

	// SqliteDumpPath is where the sqlite backend snapshots its in-memory DB.
	SqliteDumpPath string
}

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, deps Dependencies) (Backend, error) {
	switch cfg.Type {
	case "disk":
		return diskstorage.New(diskstorage.Config{
			OutputDir: cfg.Disk.OutputDir,
		}, deps.LogManager), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     deps.SqliteDumpPath,
		}, deps.LogManager, deps.RunContext)
	case "postgres":
		return postgresstorage.New(deps.Diag, deps.LogManager, deps.RunContext)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
