// pkg/core/weather.go
package core

// WeatherPreset names one ambient condition the simulator can apply.
// The enumerated set lives in internal/weather.
type WeatherPreset string
