package monitor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/frqc/data-generation/internal/influx"
	"github.com/frqc/data-generation/internal/logging"
	"github.com/frqc/data-generation/internal/run"
)

// Status is one snapshot of collector health.
type Status struct {
	Time           time.Time `json:"time"`
	RunID          string    `json:"runId"`
	Frame          uint64    `json:"frame"`
	FramesComplete uint64    `json:"framesComplete"`
	FramesPartial  uint64    `json:"framesPartial"`
	IntakeDepth    int       `json:"intakeDepth"`
	LastCollectMs  float32   `json:"lastCollectMs"`
}

// PerformanceRecorder persists collector health rows. The GORM-backed
// storage backends implement it; file-based backends do not.
type PerformanceRecorder interface {
	RecordPerformance(intakeDepth int, framesComplete, framesPartial uint64, lastCollectMs float32) error
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager  *logging.SlogManager
	RunContext  *run.Context
	Influx      *influx.Manager     // optional
	Performance PerformanceRecorder // optional
	StatusDir   string
	Snapshot    func() Status
	Interval    time.Duration
}

// Service periodically writes collector status to a file and to InfluxDB.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine")

		statusFile, err := os.Create(filepath.Join(s.deps.StatusDir, "status.json"))
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer statusFile.Close()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				status := s.deps.Snapshot()
				status.Time = time.Now().UTC()
				status.RunID = s.deps.RunContext.GetRun().RunID
				status.Frame = s.deps.RunContext.Frame()

				if statusFile != nil {
					data, err := json.MarshalIndent(status, "", "  ")
					if err == nil {
						statusFile.Truncate(0)
						statusFile.Seek(0, 0)
						statusFile.Write(append(data, '\n'))
					}
				}

				if s.deps.Influx != nil {
					point := influx.StatusPoint(
						status.RunID,
						status.Frame,
						status.FramesComplete,
						status.FramesPartial,
						status.IntakeDepth,
						status.LastCollectMs,
					)
					if err := s.deps.Influx.WritePoint(context.Background(), "collector_performance", point); err != nil {
						logger.Error("Error writing status point", "error", err)
					}
				}

				if s.deps.Performance != nil {
					err := s.deps.Performance.RecordPerformance(
						status.IntakeDepth,
						status.FramesComplete,
						status.FramesPartial,
						status.LastCollectMs,
					)
					if err != nil {
						logger.Error("Error recording collector performance", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
