// Package rig describes the sensor rig: which sensors exist for a run and
// where each one sits relative to the reference pose.
package rig

import (
	"fmt"

	"github.com/frqc/data-generation/pkg/core"
)

// ErrEmptyRegistry is returned when a run is configured with no sensors.
var ErrEmptyRegistry = fmt.Errorf("rig: registry has no sensors")

// Registry is the ordered, fixed set of sensor identities for one run.
type Registry struct {
	names []core.SensorName
}

// NewRegistry builds a registry from the configured sensor names.
// Names must be unique; an empty list is a configuration error.
func NewRegistry(names []core.SensorName) (*Registry, error) {
	if len(names) == 0 {
		return nil, ErrEmptyRegistry
	}
	seen := make(map[core.SensorName]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("rig: empty sensor name in registry")
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("rig: duplicate sensor name %q", name)
		}
		seen[name] = struct{}{}
	}
	return &Registry{names: append([]core.SensorName(nil), names...)}, nil
}

// Names returns the sensor identities in registration order.
func (r *Registry) Names() []core.SensorName {
	return append([]core.SensorName(nil), r.names...)
}

// Len returns the number of registered sensors.
func (r *Registry) Len() int {
	return len(r.names)
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name core.SensorName) bool {
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

// OffsetTable maps each sensor identity to its lateral distance from the
// reference pose. Static rig geometry, built once at startup.
type OffsetTable map[core.SensorName]float64

// Offset returns the lateral offset for name. A lookup failure is a
// configuration error, not a condition to tolerate at runtime.
func (t OffsetTable) Offset(name core.SensorName) (float64, error) {
	offset, ok := t[name]
	if !ok {
		return 0, fmt.Errorf("rig: no offset configured for sensor %q", name)
	}
	return offset, nil
}

// Validate checks that every registered sensor has exactly one offset entry.
// Run before the loop starts so a bad rig never gets to tick.
func (t OffsetTable) Validate(reg *Registry) error {
	for _, name := range reg.Names() {
		if _, ok := t[name]; !ok {
			return fmt.Errorf("rig: no offset configured for sensor %q", name)
		}
	}
	return nil
}
