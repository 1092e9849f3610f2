// internal/storage/storage.go
package storage

import (
	"time"

	"github.com/frqc/data-generation/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management
	StartRun(info *core.RunInfo) error
	EndRun() error

	// Frame recording
	RecordSample(s core.Sample) error
	RecordFrame(result *core.CollectionResult, weather core.WeatherPreset, collectTime time.Duration) error
}

// Dumpable is an optional interface for backends that can snapshot their
// state to a file on demand.
type Dumpable interface {
	DumpToDisk() error
}
