package model

import (
	"database/sql"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/frqc/data-generation/pkg/core"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Run{},
	&FrameRecord{},
	&SampleRecord{},
	&CollectorPerformance{},
}

// Run is one recording session.
type Run struct {
	gorm.Model
	RunID     string         `json:"runId" gorm:"size:36;uniqueIndex"`
	Tag       string         `json:"tag" gorm:"size:127"`
	World     string         `json:"world" gorm:"size:127"`
	StartTime time.Time      `json:"startTime"`
	EndTime   sql.NullTime   `json:"endTime"`
	Sensors   datatypes.JSON `json:"sensors"`
}

func (*Run) TableName() string {
	return "runs"
}

// FrameRecord is the per-tick collection outcome.
type FrameRecord struct {
	gorm.Model
	RunID         uint           `json:"runId" gorm:"index:idx_framerecord_run_id"`
	Run           Run            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Frame         uint64         `json:"frame" gorm:"index:idx_framerecord_frame"`
	Complete      bool           `json:"complete"`
	Missing       datatypes.JSON `json:"missing"`
	Weather       string         `json:"weather" gorm:"size:63"`
	CollectTimeMs float32        `json:"collectTimeMs"`
}

func (*FrameRecord) TableName() string {
	return "frame_records"
}

// SampleRecord is one sensor payload captured for a frame.
type SampleRecord struct {
	gorm.Model
	RunID   uint   `json:"runId" gorm:"index:idx_samplerecord_run_id"`
	Run     Run    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Sensor  string `json:"sensor" gorm:"size:64;index:idx_samplerecord_sensor"`
	Frame   uint64 `json:"frame" gorm:"index:idx_samplerecord_frame"`
	Size    int    `json:"size"`
	Payload []byte `json:"-"`
}

func (*SampleRecord) TableName() string {
	return "sample_records"
}

// CollectorPerformance is the model for collector performance metrics
type CollectorPerformance struct {
	Time                  time.Time `json:"time" gorm:"type:timestamptz;index:idx_time"`
	RunID                 uint      `json:"runId" gorm:"index:idx_collectorperformance_run_id"`
	Run                   Run       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	IntakeDepth           uint16    `json:"intakeDepth"`
	FramesComplete        uint32    `json:"framesComplete"`
	FramesPartial         uint32    `json:"framesPartial"`
	LastCollectDurationMs float32   `json:"lastCollectDurationMs"`
}

func (*CollectorPerformance) TableName() string {
	return "collector_performances"
}

// SensorsToJSON converts a sensor name list to datatypes.JSON for DB storage.
func SensorsToJSON(sensors []core.SensorName) datatypes.JSON {
	if len(sensors) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(sensors)
	return datatypes.JSON(data)
}
