package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// RigConfig describes the sensor rig geometry.
type RigConfig struct {
	Cameras          int     `json:"cameras" mapstructure:"cameras"`
	OffsetStep       float64 `json:"offsetStep" mapstructure:"offsetStep"`
	RandomizeHeading bool    `json:"randomizeHeading" mapstructure:"randomizeHeading"`
}

// CollectConfig holds barrier settings.
type CollectConfig struct {
	PerSensorTimeout time.Duration
	IntakeBuffer     int
}

// DiskConfig holds disk storage backend settings.
type DiskConfig struct {
	OutputDir string `json:"outputDir" mapstructure:"outputDir"`
}

// SQLiteConfig holds SQLite storage backend settings.
type SQLiteConfig struct {
	DumpInterval time.Duration
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Type   string
	Disk   DiskConfig
	SQLite SQLiteConfig
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("runTag", "run")

	viper.SetDefault("rig.cameras", 6)
	viper.SetDefault("rig.offsetStep", 0.1)
	viper.SetDefault("rig.randomizeHeading", false)

	viper.SetDefault("collect.perSensorTimeout", "1s")
	viper.SetDefault("collect.intakeBuffer", 64)

	viper.SetDefault("sim.fixedDelta", "200ms")
	viper.SetDefault("sim.imageWidth", 800)
	viper.SetDefault("sim.imageHeight", 600)
	viper.SetDefault("sim.maxSensorLatency", "50ms")
	viper.SetDefault("sim.seed", 0)

	viper.SetDefault("weather.enabled", true)
	viper.SetDefault("weather.everyFrames", 5)

	viper.SetDefault("storage.type", "disk")
	viper.SetDefault("storage.disk.outputDir", "./frames_out")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "datagen")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "datagen-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "datagen")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("datagen.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetRigConfig returns the typed rig configuration.
func GetRigConfig() RigConfig {
	return RigConfig{
		Cameras:          viper.GetInt("rig.cameras"),
		OffsetStep:       viper.GetFloat64("rig.offsetStep"),
		RandomizeHeading: viper.GetBool("rig.randomizeHeading"),
	}
}

// GetCollectConfig returns the typed barrier configuration.
func GetCollectConfig() CollectConfig {
	return CollectConfig{
		PerSensorTimeout: viper.GetDuration("collect.perSensorTimeout"),
		IntakeBuffer:     viper.GetInt("collect.intakeBuffer"),
	}
}

// GetStorageConfig returns the typed storage configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Disk: DiskConfig{
			OutputDir: viper.GetString("storage.disk.outputDir"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetOTelConfig returns the typed OTel configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
