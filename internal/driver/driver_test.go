package driver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/frqc/data-generation/internal/barrier"
	"github.com/frqc/data-generation/internal/geo"
	"github.com/frqc/data-generation/internal/intake"
	"github.com/frqc/data-generation/internal/logging"
	"github.com/frqc/data-generation/internal/rig"
	"github.com/frqc/data-generation/internal/run"
	"github.com/frqc/data-generation/internal/sim"
	"github.com/frqc/data-generation/internal/sim/simworld"
	"github.com/frqc/data-generation/internal/storage"
	diskstorage "github.com/frqc/data-generation/internal/storage/disk"
	"github.com/frqc/data-generation/internal/weather"
	"github.com/frqc/data-generation/pkg/core"
)

type fixture struct {
	world   *simworld.World
	deps    Dependencies
	outDir  string
	backend *countingStorage
}

// countingStorage wraps a backend and counts EndRun calls so tests can assert
// the cleanup path runs exactly once.
type countingStorage struct {
	storage.Backend
	endRuns int32
}

func (c *countingStorage) EndRun() error {
	atomic.AddInt32(&c.endRuns, 1)
	return c.Backend.EndRun()
}

func newFixture(t *testing.T, worldCfg simworld.Config) *fixture {
	t.Helper()

	if worldCfg.ImageHeight == 0 {
		worldCfg.ImageHeight = 2
	}
	if worldCfg.ImageWidth == 0 {
		worldCfg.ImageWidth = 2
	}
	world := simworld.New(worldCfg)

	registry, err := rig.NewRegistry([]core.SensorName{"cam_0", "cam_1"})
	if err != nil {
		t.Fatal(err)
	}
	offsets := rig.OffsetTable{"cam_0": 0.1, "cam_1": 0.2}

	outDir := t.TempDir()
	backend := &countingStorage{
		Backend: diskstorage.New(diskstorage.Config{OutputDir: outDir}, logging.NewSlogManager()),
	}
	if err := backend.Init(); err != nil {
		t.Fatal(err)
	}

	q := intake.New(16)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b, err := barrier.New(q, logger)
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{
		world:   world,
		outDir:  outDir,
		backend: backend,
		deps: Dependencies{
			World:      world,
			Intake:     q,
			Barrier:    b,
			Registry:   registry,
			Offsets:    offsets,
			Planner:    rig.NewPlanner(offsets),
			Storage:    backend,
			RunContext: run.NewContext("test", "sim"),
			Logger:     logger,
		},
	}
}

func defaultConfig() Config {
	return Config{
		Frames:           3,
		PerSensorTimeout: time.Second,
		FixedDelta:       200 * time.Millisecond,
	}
}

func TestNew_Validation(t *testing.T) {
	f := newFixture(t, simworld.Config{})

	cases := []struct {
		name   string
		mutate func(cfg *Config, deps *Dependencies)
	}{
		{"nil world", func(cfg *Config, deps *Dependencies) { deps.World = nil }},
		{"nil registry", func(cfg *Config, deps *Dependencies) { deps.Registry = nil }},
		{"offset hole", func(cfg *Config, deps *Dependencies) { deps.Offsets = rig.OffsetTable{"cam_0": 0.1} }},
		{"zero frames", func(cfg *Config, deps *Dependencies) { cfg.Frames = 0 }},
		{"zero timeout", func(cfg *Config, deps *Dependencies) { cfg.PerSensorTimeout = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			deps := f.deps
			tc.mutate(&cfg, &deps)
			if _, err := New(cfg, deps); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRun_CollectsAndPersistsAllFrames(t *testing.T) {
	f := newFixture(t, simworld.Config{})

	d, err := New(defaultConfig(), f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	stats := d.Stats()
	if stats.FramesComplete != 3 || stats.FramesPartial != 0 {
		t.Errorf("complete=%d partial=%d, want 3/0", stats.FramesComplete, stats.FramesPartial)
	}

	runID := f.deps.RunContext.GetRun().RunID
	for _, sensor := range []string{"cam_0", "cam_1"} {
		for frame := 1; frame <= 3; frame++ {
			path := filepath.Join(f.outDir, runID, sensor, fmt.Sprintf("%08d.bin", frame))
			if _, err := os.Stat(path); err != nil {
				t.Errorf("missing payload file %s: %v", path, err)
			}
		}
	}
}

func TestRun_MissingSensorYieldsPartialFrames(t *testing.T) {
	f := newFixture(t, simworld.Config{
		DropEvery: map[core.SensorName]uint64{"cam_1": 2},
	})

	cfg := defaultConfig()
	cfg.Frames = 4
	cfg.PerSensorTimeout = 50 * time.Millisecond

	d, err := New(cfg, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	stats := d.Stats()
	if stats.FramesPartial != 2 {
		t.Errorf("partial=%d, want 2 (cam_1 drops even frames)", stats.FramesPartial)
	}
	if stats.FramesComplete != 2 {
		t.Errorf("complete=%d, want 2", stats.FramesComplete)
	}
}

func TestRun_CleanupRunsExactlyOnce(t *testing.T) {
	f := newFixture(t, simworld.Config{})

	d, err := New(defaultConfig(), f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt32(&f.backend.endRuns); got != 1 {
		t.Errorf("EndRun called %d times, want 1", got)
	}
	if got := f.world.DestroyedCount(); got != 2 {
		t.Errorf("destroyed %d sensors, want 2", got)
	}
}

func TestRun_RestoresWorldSettings(t *testing.T) {
	f := newFixture(t, simworld.Config{})

	orig := sim.Settings{Synchronous: false, FixedDelta: 0}
	if err := f.world.ApplySettings(orig); err != nil {
		t.Fatal(err)
	}

	d, err := New(defaultConfig(), f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := f.world.Settings(); got != orig {
		t.Errorf("settings %+v, want restored %+v", got, orig)
	}
}

func TestRun_CancelledMidRun(t *testing.T) {
	f := newFixture(t, simworld.Config{
		MaxLatency: 20 * time.Millisecond,
	})

	cfg := defaultConfig()
	cfg.Frames = 1000

	d, err := New(cfg, f.deps)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err = d.Run(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled run")
	}

	// cleanup must still have happened
	if got := f.world.DestroyedCount(); got != 2 {
		t.Errorf("destroyed %d sensors, want 2", got)
	}
	if got := atomic.LoadInt32(&f.backend.endRuns); got != 1 {
		t.Errorf("EndRun called %d times, want 1", got)
	}
}

func TestRun_AppliesWeatherAndTrajectory(t *testing.T) {
	// two spawn points far apart so the per-tick reference draw produces a
	// path with distinct vertices
	f := newFixture(t, simworld.Config{
		SpawnPoints: []core.Pose{
			{Rotation: core.Rotation{Yaw: -90}},
			{Location: r3.Vec{X: 100}, Rotation: core.Rotation{Yaw: -90}},
		},
	})

	trajectory := geo.NewTrajectory()
	f.deps.Weather = weather.NewPicker(rand.New(rand.NewSource(1)))
	f.deps.Trajectory = trajectory
	f.deps.Rand = rand.New(rand.NewSource(1))

	cfg := defaultConfig()
	cfg.Frames = 16
	cfg.WeatherEvery = 1

	d, err := New(cfg, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if f.world.Weather() == "" {
		t.Error("weather preset never applied")
	}

	// one trajectory point per frame, at the first sensor's planned pose
	if trajectory.Len() != cfg.Frames {
		t.Fatalf("trajectory has %d points, want %d", trajectory.Len(), cfg.Frames)
	}
	// a valid line string requires at least two distinct vertices, which
	// only happens if the reference pose moved between ticks
	wkt, err := trajectory.WKT()
	if err != nil {
		t.Fatalf("trajectory did not form a line: %v", err)
	}
	// reference yaw -90 puts the right vector on +X, so cam_0 sits at
	// x=0.1 or x=100.1 depending on the spawn point drawn
	if want := ".1 0 0"; !strings.Contains(wkt, want) {
		t.Errorf("trajectory %q does not contain %q", wkt, want)
	}
}

func TestRun_RepicksReferenceEachTick(t *testing.T) {
	f := newFixture(t, simworld.Config{
		SpawnPoints: []core.Pose{
			{},
			{Location: r3.Vec{X: 50}},
			{Location: r3.Vec{Y: 50}},
		},
	})

	trajectory := geo.NewTrajectory()
	f.deps.Trajectory = trajectory
	f.deps.Rand = rand.New(rand.NewSource(7))

	cfg := defaultConfig()
	cfg.Frames = 24

	d, err := New(cfg, f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// with three well-separated spawn points the path must visit more than
	// one of them, so the WKT export succeeds
	if _, err := trajectory.WKT(); err != nil {
		t.Fatalf("rig never moved between ticks: %v", err)
	}
}

// pointSink records every metrics point the driver emits.
type pointSink struct {
	mu    sync.Mutex
	lines []string
}

func (p *pointSink) WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, bucket+" "+influxdb2_write.PointToLineProtocol(point, time.Nanosecond))
	return nil
}

func TestRun_EmitsPerTickFramePoints(t *testing.T) {
	f := newFixture(t, simworld.Config{})

	sink := &pointSink{}
	f.deps.Metrics = sink

	d, err := New(defaultConfig(), f.deps)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.lines) != 3 {
		t.Fatalf("got %d frame points, want 3", len(sink.lines))
	}
	for _, line := range sink.lines {
		if !strings.HasPrefix(line, "run_data ") {
			t.Errorf("point written to wrong bucket: %q", line)
		}
		// both sensors reported each tick
		if !strings.Contains(line, "satisfied=2i") || !strings.Contains(line, "missing=0i") {
			t.Errorf("per-tick counts wrong: %q", line)
		}
	}
}
