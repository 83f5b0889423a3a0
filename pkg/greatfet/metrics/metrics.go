package metrics

import (
	"github.com/GlitchKit/greatfet/pkg/greatfet/modules"
)

// GreatFETMetrics is a sink for the per-transport counters. Implementations
// poll the wrapped transport and export however they like.
type GreatFETMetrics interface {
	Shutdown()
	RemoveAllID(id string)

	AddTransport(id string, name string, mm *modules.Metrics)
	RemoveTransport(id string, name string)
}
