// pkg/core/sample.go
package core

import "time"

// SensorName uniquely identifies a registered sensor. Names are assigned at
// rig construction and never change during a run.
type SensorName string

// Sample is one production event from a sensor: the raw payload, the frame
// the simulator reported when the payload was produced, and the producer.
type Sample struct {
	Sensor   SensorName
	Frame    uint64
	Payload  []byte
	Received time.Time
}

// CollectionResult is the outcome of one tick's collection: every expected
// sensor lands either in Satisfied (with its sample) or in Missing.
type CollectionResult struct {
	Frame     uint64
	Satisfied map[SensorName]Sample
	Missing   []SensorName
}

// Complete reports whether every expected sensor delivered a sample.
func (r CollectionResult) Complete() bool {
	return len(r.Missing) == 0
}

// RunInfo describes one recording run.
type RunInfo struct {
	ID        string
	StartTime time.Time
	World     string
	Sensors   []SensorName
}
