// Package driver runs the synchronous tick loop: advance the world, gather
// one sample per sensor at the barrier, persist the outcome, then move the
// rig for the next tick.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/frqc/data-generation/internal/barrier"
	"github.com/frqc/data-generation/internal/geo"
	"github.com/frqc/data-generation/internal/influx"
	"github.com/frqc/data-generation/internal/intake"
	"github.com/frqc/data-generation/internal/rig"
	"github.com/frqc/data-generation/internal/run"
	"github.com/frqc/data-generation/internal/sim"
	"github.com/frqc/data-generation/internal/storage"
	"github.com/frqc/data-generation/internal/weather"
	"github.com/frqc/data-generation/pkg/core"
)

// MetricsSink receives one collection point per tick. *influx.Manager
// satisfies it.
type MetricsSink interface {
	WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error
}

// Dependencies holds all collaborators for the driver.
type Dependencies struct {
	World      sim.World
	Intake     *intake.Intake
	Barrier    *barrier.Barrier
	Registry   *rig.Registry
	Offsets    rig.OffsetTable
	Planner    *rig.Planner
	Storage    storage.Backend
	RunContext *run.Context
	Logger     *slog.Logger

	// Rand drives the per-tick spawn point choice. Seeded from the clock
	// when nil.
	Rand *rand.Rand

	// Optional collaborators.
	Weather    *weather.Picker
	Trajectory *geo.Trajectory
	Metrics    MetricsSink
}

// Config holds the run parameters.
type Config struct {
	Frames           int
	PerSensorTimeout time.Duration
	FixedDelta       time.Duration

	// WeatherEvery rotates the weather preset every N frames (0 = never).
	WeatherEvery int
}

// Stats is a point-in-time view of loop progress for the monitor.
type Stats struct {
	FramesComplete uint64
	FramesPartial  uint64
	IntakeDepth    int
	LastCollectMs  float32
}

// Driver owns one run of the tick loop. A Driver is single-use: construct,
// Run, discard.
type Driver struct {
	deps Dependencies
	cfg  Config

	mu             sync.Mutex
	framesComplete uint64
	framesPartial  uint64
	lastCollect    time.Duration

	cleanupOnce  sync.Once
	sensors      []sim.Sensor
	origSettings sim.Settings
}

// New validates the configuration and builds a driver. Validation failures
// here are fatal: a rig hole or a zero wait budget must never reach the loop.
func New(cfg Config, deps Dependencies) (*Driver, error) {
	if deps.World == nil || deps.Intake == nil || deps.Barrier == nil || deps.Storage == nil {
		return nil, fmt.Errorf("driver: missing dependency")
	}
	if deps.Registry == nil || deps.Registry.Len() == 0 {
		return nil, rig.ErrEmptyRegistry
	}
	if err := deps.Offsets.Validate(deps.Registry); err != nil {
		return nil, err
	}
	if cfg.Frames <= 0 {
		return nil, fmt.Errorf("driver: frame count must be positive, got %d", cfg.Frames)
	}
	if cfg.PerSensorTimeout <= 0 {
		return nil, fmt.Errorf("driver: per-sensor timeout must be positive, got %s", cfg.PerSensorTimeout)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Driver{deps: deps, cfg: cfg}, nil
}

// Stats returns loop progress counters.
func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		FramesComplete: d.framesComplete,
		FramesPartial:  d.framesPartial,
		IntakeDepth:    d.deps.Intake.Len(),
		LastCollectMs:  float32(d.lastCollect.Milliseconds()),
	}
}

// Run executes the tick loop until the configured frame count is reached or
// ctx is cancelled. Sensors are destroyed and the original world settings
// restored exactly once, on every exit path.
func (d *Driver) Run(ctx context.Context) error {
	log := d.deps.Logger
	world := d.deps.World
	names := d.deps.Registry.Names()

	d.origSettings = world.Settings()
	if err := world.ApplySettings(sim.Settings{Synchronous: true, FixedDelta: d.cfg.FixedDelta}); err != nil {
		return fmt.Errorf("driver: applying synchronous settings: %w", err)
	}
	defer d.cleanup()

	spawnPoints := world.SpawnPoints()
	if len(spawnPoints) == 0 {
		return fmt.Errorf("driver: world has no spawn points")
	}
	// The reference pose is re-drawn from the spawn points for every tick,
	// so the rig teleports across the map while recording.
	pickReference := func() core.Pose {
		return spawnPoints[d.deps.Rand.Intn(len(spawnPoints))]
	}
	reference := pickReference()

	for _, name := range names {
		sensor, err := world.SpawnSensor(name)
		if err != nil {
			return fmt.Errorf("driver: spawning sensor %q: %w", name, err)
		}
		d.sensors = append(d.sensors, sensor)

		producer := sensor.Name()
		sensor.Listen(func(payload []byte, frame uint64) {
			d.deps.Intake.Push(core.Sample{
				Sensor:  producer,
				Frame:   frame,
				Payload: payload,
			})
		})
	}

	placements, err := d.deps.Planner.Plan(reference, d.deps.Registry)
	if err != nil {
		return err
	}
	if err := d.applyPlacements(placements); err != nil {
		return err
	}

	runRec := d.deps.RunContext.GetRun()
	info := &core.RunInfo{
		ID:        runRec.RunID,
		StartTime: runRec.StartTime,
		World:     runRec.World,
		Sensors:   names,
	}
	if err := d.deps.Storage.StartRun(info); err != nil {
		return fmt.Errorf("driver: starting run: %w", err)
	}

	log.Info("Run starting", "runID", runRec.RunID, "sensors", len(names), "frames", d.cfg.Frames)

	var preset core.WeatherPreset
	for i := 0; i < d.cfg.Frames; i++ {
		if err := ctx.Err(); err != nil {
			log.Info("Run cancelled", "framesDone", i)
			return err
		}

		if d.deps.Weather != nil && d.cfg.WeatherEvery > 0 && i%d.cfg.WeatherEvery == 0 {
			preset = d.deps.Weather.Pick()
			if err := world.SetWeather(preset); err != nil {
				log.Warn("Failed to apply weather preset", "preset", preset, "error", err)
			}
		}

		frame, err := world.Tick(ctx)
		if err != nil {
			return fmt.Errorf("driver: tick: %w", err)
		}
		d.deps.RunContext.SetFrame(frame)

		start := time.Now()
		result := d.deps.Barrier.Collect(ctx, frame, names, d.cfg.PerSensorTimeout)
		collectTime := time.Since(start)

		d.mu.Lock()
		d.lastCollect = collectTime
		if result.Complete() {
			d.framesComplete++
		} else {
			d.framesPartial++
		}
		d.mu.Unlock()

		if !result.Complete() {
			log.Warn("Frame collected partially",
				"frame", frame, "missing", result.Missing, "collectTime", collectTime)
		} else {
			log.Debug("Frame collected", "frame", frame, "collectTime", collectTime)
		}

		// Persist in registration order so output is deterministic.
		for _, name := range names {
			sample, ok := result.Satisfied[name]
			if !ok {
				continue
			}
			if err := d.deps.Storage.RecordSample(sample); err != nil {
				log.Error("Failed to persist sample", "sensor", name, "frame", frame, "error", err)
			}
		}
		if err := d.deps.Storage.RecordFrame(&result, preset, collectTime); err != nil {
			log.Error("Failed to persist frame record", "frame", frame, "error", err)
		}

		if d.deps.Metrics != nil {
			point := influx.FramePoint(runRec.RunID, frame,
				len(result.Satisfied), len(result.Missing), collectTime)
			if err := d.deps.Metrics.WritePoint(ctx, "run_data", point); err != nil {
				log.Debug("Failed to write frame point", "frame", frame, "error", err)
			}
		}

		reference = pickReference()
		placements, err := d.deps.Planner.Plan(reference, d.deps.Registry)
		if err != nil {
			return err
		}
		if err := d.applyPlacements(placements); err != nil {
			return err
		}

		if d.deps.Trajectory != nil {
			d.deps.Trajectory.Append(placements[names[0]])
		}
	}

	log.Info("Run finished", "frames", d.cfg.Frames)
	return nil
}

func (d *Driver) applyPlacements(placements map[core.SensorName]core.Pose) error {
	for _, sensor := range d.sensors {
		pose, ok := placements[sensor.Name()]
		if !ok {
			return fmt.Errorf("driver: no placement for sensor %q", sensor.Name())
		}
		if err := sensor.SetTransform(pose); err != nil {
			return fmt.Errorf("driver: repositioning sensor %q: %w", sensor.Name(), err)
		}
	}
	return nil
}

// cleanup destroys spawned sensors, restores the captured world settings and
// closes out the run in storage. Guarded by sync.Once: Run defers it, and
// every early return passes through the same gate.
func (d *Driver) cleanup() {
	d.cleanupOnce.Do(func() {
		log := d.deps.Logger

		for _, sensor := range d.sensors {
			if err := sensor.Destroy(); err != nil {
				log.Warn("Failed to destroy sensor", "sensor", sensor.Name(), "error", err)
			}
		}

		if err := d.deps.World.ApplySettings(d.origSettings); err != nil {
			log.Error("Failed to restore world settings", "error", err)
		}

		if err := d.deps.Storage.EndRun(); err != nil {
			log.Error("Failed to finalize run in storage", "error", err)
		}

		log.Info("Cleanup complete", "sensorsDestroyed", len(d.sensors))
	})
}
