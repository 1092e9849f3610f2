// Package gormstorage implements the storage.Backend interface on top of a
// GORM database handle. The SQLite and Postgres backends both delegate here;
// they differ only in how the handle is opened and flushed.
package gormstorage

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/frqc/data-generation/internal/logging"
	"github.com/frqc/data-generation/internal/model"
	"github.com/frqc/data-generation/internal/run"
	"github.com/frqc/data-generation/pkg/core"
)

// Dependencies holds all dependencies for the GORM backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
	RunContext *run.Context
}

// Backend persists runs, frame records and samples through GORM.
type Backend struct {
	deps Dependencies
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("gorm storage: migrating schema: %w", err)
	}
	return nil
}

// Close closes the underlying sql.DB.
func (b *Backend) Close() error {
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartRun inserts the run row and publishes it to the run context.
func (b *Backend) StartRun(info *core.RunInfo) error {
	rec := b.deps.RunContext.GetRun()
	rec.RunID = info.ID
	rec.World = info.World
	rec.StartTime = info.StartTime
	rec.Sensors = model.SensorsToJSON(info.Sensors)

	if err := b.deps.DB.Create(rec).Error; err != nil {
		return fmt.Errorf("gorm storage: creating run: %w", err)
	}
	b.deps.RunContext.SetRun(rec)

	b.deps.LogManager.Logger().Info("Run started", "runID", rec.RunID, "dbID", rec.ID)
	return nil
}

// EndRun stamps the run's end time.
func (b *Backend) EndRun() error {
	rec := b.deps.RunContext.GetRun()
	if rec.ID == 0 {
		return nil
	}
	rec.EndTime = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	return b.deps.DB.Model(rec).Update("end_time", rec.EndTime).Error
}

// RecordSample inserts one sample row.
func (b *Backend) RecordSample(s core.Sample) error {
	rec := &model.SampleRecord{
		RunID:   b.deps.RunContext.GetRun().ID,
		Sensor:  string(s.Sensor),
		Frame:   s.Frame,
		Size:    len(s.Payload),
		Payload: s.Payload,
	}
	return b.deps.DB.Create(rec).Error
}

// RecordPerformance inserts one collector health row. The monitor calls
// this on its sampling interval.
func (b *Backend) RecordPerformance(intakeDepth int, framesComplete, framesPartial uint64, lastCollectMs float32) error {
	rec := &model.CollectorPerformance{
		Time:                  time.Now().UTC(),
		RunID:                 b.deps.RunContext.GetRun().ID,
		IntakeDepth:           uint16(intakeDepth),
		FramesComplete:        uint32(framesComplete),
		FramesPartial:         uint32(framesPartial),
		LastCollectDurationMs: lastCollectMs,
	}
	return b.deps.DB.Create(rec).Error
}

// RecordFrame inserts one frame record.
func (b *Backend) RecordFrame(result *core.CollectionResult, weather core.WeatherPreset, collectTime time.Duration) error {
	rec := &model.FrameRecord{
		RunID:         b.deps.RunContext.GetRun().ID,
		Frame:         result.Frame,
		Complete:      result.Complete(),
		Missing:       model.SensorsToJSON(result.Missing),
		Weather:       string(weather),
		CollectTimeMs: float32(collectTime.Milliseconds()),
	}
	return b.deps.DB.Create(rec).Error
}
