// Package postgresstorage implements the storage.Backend interface on
// Postgres, falling back to in-memory SQLite when the server is unreachable.
package postgresstorage

import (
	"github.com/rs/zerolog"

	"github.com/frqc/data-generation/internal/database"
	"github.com/frqc/data-generation/internal/logging"
	"github.com/frqc/data-generation/internal/run"
	gormstorage "github.com/frqc/data-generation/internal/storage/gorm"
)

// Backend wraps the GORM backend over a managed Postgres connection.
type Backend struct {
	*gormstorage.Backend
	dbm *database.Manager
}

// New connects to Postgres (or the SQLite fallback) and builds the backend.
func New(diag zerolog.Logger, logManager *logging.SlogManager, runCtx *run.Context) (*Backend, error) {
	dbm := database.NewManager(diag)
	if err := dbm.Connect(); err != nil {
		return nil, err
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         dbm.DB,
		LogManager: logManager,
		RunContext: runCtx,
	})

	return &Backend{
		Backend: gormBackend,
		dbm:     dbm,
	}, nil
}

// UsingLocalFallback reports whether the backend fell back to SQLite.
func (b *Backend) UsingLocalFallback() bool {
	return b.dbm.ShouldSaveLocal
}
