// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend via composition — the only SQLite-specific concerns are:
// (a) creating the in-memory DB, (b) the periodic disk dump, and (c) a final
// dump when the run ends.
package sqlitestorage

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/frqc/data-generation/internal/database"
	"github.com/frqc/data-generation/internal/logging"
	"github.com/frqc/data-generation/internal/run"
	gormstorage "github.com/frqc/data-generation/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *logging.SlogManager
	stopChan chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, logManager *logging.SlogManager, runCtx *run.Context) (*Backend, error) {
	db, err := database.GetSqliteDBStandalone("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: logManager,
		RunContext: runCtx,
	})

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, takes a final snapshot and closes the
// embedded GORM backend.
func (b *Backend) Close() error {
	close(b.stopChan)
	if b.cfg.DumpPath != "" {
		if err := b.DumpToDisk(); err != nil {
			b.log.Logger().Error("Final SQLite dump failed", "error", err)
		}
	}
	return b.Backend.Close()
}

// DumpToDisk takes a point-in-time snapshot of the in-memory database.
func (b *Backend) DumpToDisk() error {
	return database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath)
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.DumpToDisk(); err != nil {
				b.log.Logger().Error("Error dumping to disk", "error", err)
			} else {
				b.log.Logger().Debug("Dumped to disk", "duration", time.Since(start))
			}
		}
	}
}
