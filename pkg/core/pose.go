// pkg/core/pose.go
package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Rotation holds pitch, yaw and roll in degrees.
type Rotation struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Pose is a position plus orientation in world space.
type Pose struct {
	Location r3.Vec   `json:"location"`
	Rotation Rotation `json:"rotation"`
}

// RightVector returns the unit vector pointing along the pose's lateral
// ("right") axis. With zero rotation this is (0, 1, 0).
func (r Rotation) RightVector() r3.Vec {
	cy := math.Cos(radians(r.Yaw))
	sy := math.Sin(radians(r.Yaw))
	cp := math.Cos(radians(r.Pitch))
	sp := math.Sin(radians(r.Pitch))
	cr := math.Cos(radians(r.Roll))
	sr := math.Sin(radians(r.Roll))

	return r3.Vec{
		X: cy*sp*sr - sy*cr,
		Y: sy*sp*sr + cy*cr,
		Z: -cp * sr,
	}
}

// Right returns the pose's lateral unit vector.
func (p Pose) Right() r3.Vec {
	return p.Rotation.RightVector()
}

// Translate returns a copy of the pose moved by the given delta.
func (p Pose) Translate(delta r3.Vec) Pose {
	p.Location = r3.Add(p.Location, delta)
	return p
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
