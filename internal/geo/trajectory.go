// Package geo records the reference pose path of a run and exports it as
// WKT geometry for inspection in GIS tooling.
package geo

import (
	"fmt"
	"os"
	"sync"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/frqc/data-generation/pkg/core"
)

// Trajectory accumulates poses in visit order.
type Trajectory struct {
	mu     sync.Mutex
	coords []float64
}

// NewTrajectory creates an empty trajectory.
func NewTrajectory() *Trajectory {
	return &Trajectory{}
}

// Append adds one pose to the path.
func (t *Trajectory) Append(pose core.Pose) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.coords = append(t.coords, pose.Location.X, pose.Location.Y, pose.Location.Z)
}

// Len returns the number of recorded poses.
func (t *Trajectory) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.coords) / 3
}

// LineString builds the XYZ line string for the recorded path.
// A path needs at least 2 points to form a line.
func (t *Trajectory) LineString() (geom.LineString, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.coords)/3 < 2 {
		return geom.LineString{}, fmt.Errorf("trajectory must have at least 2 points, got %d", len(t.coords)/3)
	}

	seq := geom.NewSequence(append([]float64(nil), t.coords...), geom.DimXYZ)
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return geom.LineString{}, fmt.Errorf("trajectory: building line string: %w", err)
	}
	return ls, nil
}

// WKT returns the path as well-known text.
func (t *Trajectory) WKT() (string, error) {
	ls, err := t.LineString()
	if err != nil {
		return "", err
	}
	return ls.AsText(), nil
}

// WriteFile writes the WKT representation to path.
func (t *Trajectory) WriteFile(path string) error {
	wkt, err := t.WKT()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(wkt+"\n"), 0644)
}
