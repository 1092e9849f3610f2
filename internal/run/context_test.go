package run

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContext(t *testing.T) {
	rc := NewContext("nightly", "sim")

	require.NotNil(t, rc.GetRun())
	assert.Equal(t, "nightly", rc.GetRun().Tag)
	assert.Equal(t, "sim", rc.GetRun().World)
	assert.False(t, rc.GetRun().StartTime.IsZero())

	_, err := uuid.Parse(rc.GetRun().RunID)
	assert.NoError(t, err, "run ID should be a valid UUID")
}

func TestNewContext_UniqueRunIDs(t *testing.T) {
	a := NewContext("t", "w")
	b := NewContext("t", "w")
	assert.NotEqual(t, a.GetRun().RunID, b.GetRun().RunID)
}

func TestContext_Frame(t *testing.T) {
	rc := NewContext("t", "w")
	assert.Zero(t, rc.Frame())

	rc.SetFrame(42)
	assert.Equal(t, uint64(42), rc.Frame())
}
