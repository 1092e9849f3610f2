// Package weather holds the fixed set of ambient presets and the random
// selection the driver applies on its periodic schedule.
package weather

import (
	"math/rand"

	"github.com/frqc/data-generation/pkg/core"
)

// presets is the enumerated set of ambient conditions the simulator accepts.
var presets = []core.WeatherPreset{
	"ClearNoon",
	"CloudyNoon",
	"WetNoon",
	"WetCloudyNoon",
	"HardRainNoon",
	"SoftRainNoon",
	"ClearSunset",
	"CloudySunset",
	"WetSunset",
	"HardRainSunset",
}

// Presets returns the full preset set.
func Presets() []core.WeatherPreset {
	return append([]core.WeatherPreset(nil), presets...)
}

// Picker selects a random preset, never repeating the previous pick so a
// scheduled change is always a visible change.
type Picker struct {
	rng  *rand.Rand
	last core.WeatherPreset
}

// NewPicker creates a Picker backed by the given source.
func NewPicker(rng *rand.Rand) *Picker {
	return &Picker{rng: rng}
}

// Pick returns the next preset.
func (p *Picker) Pick() core.WeatherPreset {
	for {
		next := presets[p.rng.Intn(len(presets))]
		if next != p.last {
			p.last = next
			return next
		}
	}
}
