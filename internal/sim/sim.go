// Package sim defines the simulator collaborator surface the driver runs
// against. The in-process implementation lives in sim/simworld; a remote
// session would satisfy the same interfaces.
package sim

import (
	"context"
	"time"

	"github.com/frqc/data-generation/pkg/core"
)

// Settings is the subset of world configuration the driver touches. The
// original settings are captured before the run and restored on every exit
// path.
type Settings struct {
	Synchronous bool
	FixedDelta  time.Duration
}

// SensorCallback receives one production event: the raw payload and the
// frame the sensor observed when producing it. Callbacks run on the sensor's
// own goroutine, never on the driver's.
type SensorCallback func(payload []byte, frame uint64)

// Sensor is one spawned sensor actor.
type Sensor interface {
	Name() core.SensorName

	// Listen registers the production callback. At most one listener per
	// sensor; the callback fires once per production event.
	Listen(cb SensorCallback)

	SetTransform(pose core.Pose) error
	Destroy() error
}

// World is the simulator session.
type World interface {
	// Tick advances the simulation one step and returns the authoritative
	// frame number for the new state.
	Tick(ctx context.Context) (uint64, error)

	Settings() Settings
	ApplySettings(s Settings) error

	SpawnPoints() []core.Pose
	SetWeather(preset core.WeatherPreset) error

	SpawnSensor(name core.SensorName) (Sensor, error)
}
