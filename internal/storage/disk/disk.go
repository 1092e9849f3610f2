// Package diskstorage implements the storage.Backend interface on the local
// filesystem: one directory per sensor, one payload file per frame, plus a
// run.json manifest.
package diskstorage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/frqc/data-generation/internal/logging"
	"github.com/frqc/data-generation/pkg/core"
)

// Config holds configuration for the disk storage backend.
type Config struct {
	OutputDir string
}

// Backend writes payloads under <OutputDir>/<runID>/<sensor>/<frame>.bin.
type Backend struct {
	cfg    Config
	log    *logging.SlogManager
	runDir string
	info   *core.RunInfo
}

// New creates a new disk storage backend.
func New(cfg Config, logManager *logging.SlogManager) *Backend {
	return &Backend{
		cfg: cfg,
		log: logManager,
	}
}

// Init creates the output directory.
func (b *Backend) Init() error {
	if b.cfg.OutputDir == "" {
		return fmt.Errorf("disk storage: output directory not set")
	}
	return os.MkdirAll(b.cfg.OutputDir, 0755)
}

// Close is a no-op; files are closed after every write.
func (b *Backend) Close() error {
	return nil
}

// StartRun creates the per-run directory tree and writes the manifest.
func (b *Backend) StartRun(info *core.RunInfo) error {
	b.info = info
	b.runDir = filepath.Join(b.cfg.OutputDir, info.ID)

	for _, sensor := range info.Sensors {
		if err := os.MkdirAll(filepath.Join(b.runDir, string(sensor)), 0755); err != nil {
			return fmt.Errorf("disk storage: creating sensor dir: %w", err)
		}
	}

	return b.writeManifest()
}

// EndRun rewrites the manifest so it carries the final sensor list.
func (b *Backend) EndRun() error {
	if b.info == nil {
		return nil
	}
	return b.writeManifest()
}

// RecordSample writes one payload file, named by frame number.
func (b *Backend) RecordSample(s core.Sample) error {
	if b.runDir == "" {
		return fmt.Errorf("disk storage: run not started")
	}
	path := filepath.Join(b.runDir, string(s.Sensor), fmt.Sprintf("%08d.bin", s.Frame))
	return os.WriteFile(path, s.Payload, 0644)
}

// RecordFrame appends one line to the frame index.
func (b *Backend) RecordFrame(result *core.CollectionResult, weather core.WeatherPreset, collectTime time.Duration) error {
	if b.runDir == "" {
		return fmt.Errorf("disk storage: run not started")
	}

	entry := frameEntry{
		Frame:         result.Frame,
		Complete:      result.Complete(),
		Missing:       result.Missing,
		Weather:       string(weather),
		CollectTimeMs: float32(collectTime.Milliseconds()),
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(b.runDir, "frames.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

type frameEntry struct {
	Frame         uint64            `json:"frame"`
	Complete      bool              `json:"complete"`
	Missing       []core.SensorName `json:"missing,omitempty"`
	Weather       string            `json:"weather,omitempty"`
	CollectTimeMs float32           `json:"collectTimeMs"`
}

func (b *Backend) writeManifest() error {
	data, err := json.MarshalIndent(b.info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(b.runDir, "run.json"), data, 0644)
}
