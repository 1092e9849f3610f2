package barrier

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meter returns the global OTel meter for barrier metrics.
// Returns a no-op meter if no provider is configured.
func meter() metric.Meter {
	return otel.Meter("github.com/frqc/data-generation/internal/barrier")
}
