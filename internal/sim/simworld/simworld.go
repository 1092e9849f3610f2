// Package simworld is an in-process simulator: a deterministic stand-in for
// a live session that still produces samples the way a real one does, from
// one independent goroutine per sensor.
package simworld

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/frqc/data-generation/internal/sim"
	"github.com/frqc/data-generation/pkg/core"
)

// Config controls the simulated world.
type Config struct {
	SpawnPoints []core.Pose

	// Image geometry for synthesized camera payloads.
	ImageHeight int
	ImageWidth  int

	// MaxLatency is the upper bound on the random delay between a tick and
	// a sensor's callback firing.
	MaxLatency time.Duration

	// DropEvery makes a sensor skip every Nth frame (0 = never skip). Used
	// to exercise the missing-sensor path.
	DropEvery map[core.SensorName]uint64

	Seed int64
}

// World implements sim.World in-process.
type World struct {
	cfg Config

	mu       sync.Mutex
	settings sim.Settings
	weather  core.WeatherPreset
	frame    uint64
	sensors  map[core.SensorName]*Sensor
	rng      *rand.Rand
}

// New creates a simulated world.
func New(cfg Config) *World {
	if len(cfg.SpawnPoints) == 0 {
		cfg.SpawnPoints = []core.Pose{{}}
	}
	if cfg.ImageHeight <= 0 {
		cfg.ImageHeight = 600
	}
	if cfg.ImageWidth <= 0 {
		cfg.ImageWidth = 800
	}
	return &World{
		cfg:     cfg,
		sensors: make(map[core.SensorName]*Sensor),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Tick advances the frame counter and triggers every live sensor. It returns
// as soon as the step is taken; sensor payloads arrive in parallel on their
// own goroutines, exactly like a remote session streaming sensor data.
func (w *World) Tick(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	w.mu.Lock()
	w.frame++
	frame := w.frame
	for _, s := range w.sensors {
		s.trigger(frame)
	}
	w.mu.Unlock()

	return frame, nil
}

// Settings returns the current world settings.
func (w *World) Settings() sim.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings
}

// ApplySettings replaces the world settings.
func (w *World) ApplySettings(s sim.Settings) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.settings = s
	return nil
}

// SpawnPoints returns the configured spawn poses.
func (w *World) SpawnPoints() []core.Pose {
	return append([]core.Pose(nil), w.cfg.SpawnPoints...)
}

// SetWeather applies an ambient preset.
func (w *World) SetWeather(preset core.WeatherPreset) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.weather = preset
	return nil
}

// Weather returns the preset currently applied.
func (w *World) Weather() core.WeatherPreset {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.weather
}

// SpawnSensor creates a sensor actor with its own production goroutine.
func (w *World) SpawnSensor(name core.SensorName) (sim.Sensor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.sensors[name]; ok {
		return nil, fmt.Errorf("simworld: sensor %q already spawned", name)
	}

	s := &Sensor{
		name:      name,
		world:     w,
		frames:    make(chan uint64, 8),
		stop:      make(chan struct{}),
		latency:   w.cfg.MaxLatency,
		dropEvery: w.cfg.DropEvery[name],
		rng:       rand.New(rand.NewSource(w.rng.Int63())),
	}
	w.sensors[name] = s
	go s.produceLoop()

	return s, nil
}

// DestroyedCount reports how many sensors have been destroyed. Test hook for
// the cleanup invariant.
func (w *World) DestroyedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, s := range w.sensors {
		if s.isDestroyed() {
			n++
		}
	}
	return n
}

// Sensor is one simulated sensor actor.
type Sensor struct {
	name  core.SensorName
	world *World

	frames chan uint64
	stop   chan struct{}

	latency   time.Duration
	dropEvery uint64
	rng       *rand.Rand

	mu        sync.Mutex
	cb        sim.SensorCallback
	pose      core.Pose
	destroyed bool
}

// Name returns the sensor's identity.
func (s *Sensor) Name() core.SensorName {
	return s.name
}

// Listen registers the production callback.
func (s *Sensor) Listen(cb sim.SensorCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
}

// SetTransform repositions the sensor.
func (s *Sensor) SetTransform(pose core.Pose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("simworld: sensor %q destroyed", s.name)
	}
	s.pose = pose
	return nil
}

// Transform returns the last applied pose. Test hook.
func (s *Sensor) Transform() core.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pose
}

// Destroy stops the production goroutine. Destroying twice is an error so
// double-release bugs surface in tests.
func (s *Sensor) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("simworld: sensor %q destroyed twice", s.name)
	}
	s.destroyed = true
	close(s.stop)
	return nil
}

func (s *Sensor) isDestroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// trigger hands a frame to the production goroutine. Drops on a full buffer
// rather than stalling the world's tick.
func (s *Sensor) trigger(frame uint64) {
	select {
	case s.frames <- frame:
	case <-s.stop:
	default:
	}
}

func (s *Sensor) produceLoop() {
	for {
		select {
		case <-s.stop:
			return
		case frame := <-s.frames:
			if s.dropEvery > 0 && frame%s.dropEvery == 0 {
				continue
			}
			if s.latency > 0 {
				delay := time.Duration(s.rng.Int63n(int64(s.latency)))
				select {
				case <-time.After(delay):
				case <-s.stop:
					return
				}
			}

			s.mu.Lock()
			cb := s.cb
			s.mu.Unlock()
			if cb == nil {
				continue
			}

			cb(s.synthesize(frame), frame)
		}
	}
}

// synthesize builds a BGRA payload whose bytes encode the frame number, so
// tests can tell payloads apart.
func (s *Sensor) synthesize(frame uint64) []byte {
	payload := make([]byte, s.world.cfg.ImageHeight*s.world.cfg.ImageWidth*4)
	for i := range payload {
		payload[i] = byte(frame)
	}
	return payload
}
