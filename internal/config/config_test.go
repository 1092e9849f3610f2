package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "datagen.cfg.json"), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"runTag": "nightly",
		"rig": { "cameras": 3, "offsetStep": 0.25 }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "nightly", viper.GetString("runTag"))
	assert.Equal(t, 3, viper.GetInt("rig.cameras"))
	assert.Equal(t, 0.25, viper.GetFloat64("rig.offsetStep"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./logs", viper.GetString("logsDir"))
	assert.Equal(t, 6, viper.GetInt("rig.cameras"))
	assert.Equal(t, 0.1, viper.GetFloat64("rig.offsetStep"))
	assert.Equal(t, false, viper.GetBool("rig.randomizeHeading"))
	assert.Equal(t, "1s", viper.GetString("collect.perSensorTimeout"))
	assert.Equal(t, "200ms", viper.GetString("sim.fixedDelta"))
	assert.Equal(t, true, viper.GetBool("weather.enabled"))
	assert.Equal(t, 5, viper.GetInt("weather.everyFrames"))
	assert.Equal(t, "disk", viper.GetString("storage.type"))
	assert.Equal(t, "./frames_out", viper.GetString("storage.disk.outputDir"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "datagen", viper.GetString("otel.serviceName"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetRigConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{"rig": {"cameras": 4, "offsetStep": 0.5, "randomizeHeading": true}}`)
	require.NoError(t, Load(dir))

	rc := GetRigConfig()
	assert.Equal(t, 4, rc.Cameras)
	assert.Equal(t, 0.5, rc.OffsetStep)
	assert.True(t, rc.RandomizeHeading)
}

func TestGetCollectConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{}`)
	require.NoError(t, Load(dir))

	cc := GetCollectConfig()
	assert.Equal(t, time.Second, cc.PerSensorTimeout)
	assert.Equal(t, 64, cc.IntakeBuffer)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"disk": { "outputDir": "/tmp/frames" },
			"sqlite": { "dumpInterval": "10m" }
		}
	}`)
	require.NoError(t, Load(dir))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/frames", sc.Disk.OutputDir)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"endpoint": "localhost:4317",
			"insecure": false
		}
	}`)
	require.NoError(t, Load(dir))

	oc := GetOTelConfig()
	assert.True(t, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4317", oc.Endpoint)
	assert.False(t, oc.Insecure)
}
