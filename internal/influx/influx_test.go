package influx

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramePoint(t *testing.T) {
	p := FramePoint("run-1", 12, 5, 1, 40*time.Millisecond)

	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	assert.Contains(t, line, "frame_collection")
	assert.Contains(t, line, "runID=run-1")
	assert.Contains(t, line, "satisfied=5i")
	assert.Contains(t, line, "missing=1i")
	assert.Contains(t, line, "collectTimeMs=40")
}

func TestStatusPoint(t *testing.T) {
	p := StatusPoint("run-2", 30, 28, 2, 4, 12.5)

	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	assert.Contains(t, line, "run_status")
	assert.Contains(t, line, "runID=run-2")
	assert.Contains(t, line, "framesComplete=28i")
	assert.Contains(t, line, "framesPartial=2i")
	assert.Contains(t, line, "intakeDepth=4i")
	assert.Contains(t, line, "lastCollectMs=12.5")
}

func TestWritePoint_BackupWriter(t *testing.T) {
	backupPath := filepath.Join(t.TempDir(), "influx_backup.log.gzip")
	file, err := os.Create(backupPath)
	require.NoError(t, err)

	m := NewManager(zerolog.Nop(), backupPath)
	m.BackupWriter = gzip.NewWriter(file)

	p := FramePoint("run-1", 1, 6, 0, 10*time.Millisecond)
	require.NoError(t, m.WritePoint(context.Background(), "run_data", p))
	require.NoError(t, m.BackupWriter.Close())
	require.NoError(t, file.Close())

	// read back through gzip and confirm line protocol landed
	f, err := os.Open(backupPath)
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	buf := make([]byte, 4096)
	n, _ := zr.Read(buf)
	assert.Contains(t, string(buf[:n]), "frame_collection")
}

func TestWritePoint_NoWriterNoClient(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	err := m.WritePoint(context.Background(), "run_data", FramePoint("r", 1, 0, 0, 0))
	assert.Error(t, err)
}

func TestWritePoint_UnknownBucket(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	m.IsValid = true
	err := m.WritePoint(context.Background(), "nope", FramePoint("r", 1, 0, 0, 0))
	assert.Error(t, err)
}
