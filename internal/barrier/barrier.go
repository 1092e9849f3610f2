// Package barrier implements the per-tick collection point: one bounded
// intake wait per expected sensor, with the remaining sensors reported as
// missing once a single wait times out.
package barrier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frqc/data-generation/internal/intake"
	"github.com/frqc/data-generation/pkg/core"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Barrier gathers one sample per registered sensor from the shared intake.
type Barrier struct {
	intake *intake.Intake
	logger Logger

	// OTEL metrics
	collected  metric.Int64Counter
	missed     metric.Int64Counter
	unexpected metric.Int64Counter
	intakeLen  metric.Int64ObservableGauge
}

// New creates a Barrier reading from q.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(q *intake.Intake, logger Logger) (*Barrier, error) {
	b := &Barrier{
		intake: q,
		logger: logger,
	}

	m := meter()

	var err error

	b.collected, err = m.Int64Counter(
		"barrier.samples.collected",
		metric.WithDescription("Samples matched to an expected sensor"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collected counter: %w", err)
	}

	b.missed, err = m.Int64Counter(
		"barrier.sensors.missed",
		metric.WithDescription("Sensors that did not report before the wait budget elapsed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating missed counter: %w", err)
	}

	b.unexpected, err = m.Int64Counter(
		"barrier.samples.unexpected",
		metric.WithDescription("Samples tagged with an identity outside the expected set"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating unexpected counter: %w", err)
	}

	b.intakeLen, err = m.Int64ObservableGauge(
		"barrier.intake.depth",
		metric.WithDescription("Samples buffered in the intake"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating intake gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(b.intakeLen, int64(q.Len()))
			return nil
		},
		b.intakeLen,
	)
	if err != nil {
		return nil, fmt.Errorf("registering intake callback: %w", err)
	}

	return b, nil
}

// Collect pulls samples off the intake until every sensor in expected has
// reported or one wait elapses without any sample arriving. A timeout ends
// the whole collection: the sensors still pending are reported as missing
// rather than waited on individually. That mirrors how a single timed-out
// blocking get used to abandon the tick, and callers depend on the bounded
// worst case of len(expected) x perItemTimeout.
//
// Samples tagged with an identity outside the expected set, or with an
// identity that already reported this tick, are logged at warn level and
// discarded without consuming another sensor's slot.
func (b *Barrier) Collect(ctx context.Context, frame uint64, expected []core.SensorName, perItemTimeout time.Duration) core.CollectionResult {
	pending := make(map[core.SensorName]struct{}, len(expected))
	for _, name := range expected {
		pending[name] = struct{}{}
	}

	result := core.CollectionResult{
		Frame:     frame,
		Satisfied: make(map[core.SensorName]core.Sample, len(expected)),
	}

	// Discarded samples re-arm the next wait without consuming a slot, so a
	// misbehaving producer could otherwise stretch the collection past the
	// budget callers size their tick around. Cap the whole collection at
	// len(expected) waits' worth of wall time.
	deadline := time.Now().Add(time.Duration(len(expected)) * perItemTimeout)

	for len(pending) > 0 {
		wait := time.Until(deadline)
		if wait > perItemTimeout {
			wait = perItemTimeout
		}
		if wait <= 0 {
			break
		}

		s, err := b.intake.Pop(ctx, wait)
		if errors.Is(err, intake.ErrTimeout) {
			break
		}
		if err != nil {
			// Cancelled mid-collection; report the remainder as missing and
			// let the driver observe ctx.Err on its own.
			break
		}

		if _, ok := pending[s.Sensor]; !ok {
			if _, dup := result.Satisfied[s.Sensor]; dup {
				b.logger.Warn("Duplicate sample for already satisfied sensor",
					"sensor", s.Sensor, "sampleFrame", s.Frame, "tickFrame", frame)
			} else {
				b.logger.Warn("Sample from sensor outside the expected set",
					"sensor", s.Sensor, "sampleFrame", s.Frame, "tickFrame", frame)
			}
			b.unexpected.Add(ctx, 1, metric.WithAttributes(attribute.String("sensor", string(s.Sensor))))
			continue
		}

		if s.Frame != frame {
			b.logger.Warn("Sample frame does not match tick frame",
				"sensor", s.Sensor, "sampleFrame", s.Frame, "tickFrame", frame)
		}

		delete(pending, s.Sensor)
		result.Satisfied[s.Sensor] = s
		b.collected.Add(ctx, 1, metric.WithAttributes(attribute.String("sensor", string(s.Sensor))))

		b.logger.Debug("Collected sample", "sensor", s.Sensor, "frame", s.Frame)
	}

	// Preserve registration order in the missing list so diagnostics are
	// stable even though arrival order is not.
	for _, name := range expected {
		if _, ok := pending[name]; ok {
			result.Missing = append(result.Missing, name)
			b.missed.Add(ctx, 1, metric.WithAttributes(attribute.String("sensor", string(name))))
		}
	}

	return result
}
