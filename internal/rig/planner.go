package rig

import (
	"math/rand"

	"github.com/frqc/data-generation/pkg/core"

	"gonum.org/v1/gonum/spatial/r3"
)

// Planner computes where each sensor goes for the next tick. The baseline
// variant derives poses straight from the reference; the randomized-heading
// variant spins the reference yaw first, so the rig sweeps different view
// directions across a run.
type Planner struct {
	offsets          OffsetTable
	randomizeHeading bool
	rng              *rand.Rand
}

// Option configures planner construction.
type Option func(*Planner)

// WithRandomHeading makes the planner randomize the reference heading once
// per planning pass before deriving sensor poses.
func WithRandomHeading(rng *rand.Rand) Option {
	return func(p *Planner) {
		p.randomizeHeading = true
		p.rng = rng
	}
}

// NewPlanner creates a planner over the given rig geometry.
func NewPlanner(offsets OffsetTable, opts ...Option) *Planner {
	p := &Planner{offsets: offsets}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NextTransform derives one sensor's pose: the reference right-vector scaled
// by the sensor's offset, added to the reference location. Orientation stays
// at the zero default; the reference rotation is not transferred. Pure
// function of its inputs.
func NextTransform(reference core.Pose, offset float64) core.Pose {
	delta := r3.Scale(offset, reference.Right())
	return core.Pose{Location: r3.Add(reference.Location, delta)}
}

// Plan computes the next pose for every sensor in the registry from the
// given reference. Offset lookup failure aborts the pass: a hole in the
// table means the rig was misconfigured, never silently place at zero.
func (p *Planner) Plan(reference core.Pose, reg *Registry) (map[core.SensorName]core.Pose, error) {
	if p.randomizeHeading {
		reference.Rotation.Yaw = p.rng.Float64()*360 - 180
	}

	placements := make(map[core.SensorName]core.Pose, reg.Len())
	for _, name := range reg.Names() {
		offset, err := p.offsets.Offset(name)
		if err != nil {
			return nil, err
		}
		placements[name] = NextTransform(reference, offset)
	}
	return placements, nil
}
