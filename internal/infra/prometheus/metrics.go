package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application counters, registered on the default registry the /metrics
// endpoint serves.
var (
	// LinksCreated counts created links by kind: "random", "custom" or
	// "reused".
	LinksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laghu",
		Name:      "links_created_total",
		Help:      "Short links created, by slug kind.",
	}, []string{"kind"})

	// Resolutions counts redirect lookups by outcome: "hit", "not_found"
	// or "error".
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laghu",
		Name:      "resolutions_total",
		Help:      "Slug resolutions, by outcome.",
	}, []string{"outcome"})

	// ClicksRecorded counts persisted clicks by recording mode.
	ClicksRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laghu",
		Name:      "clicks_recorded_total",
		Help:      "Click records written, by recording mode.",
	}, []string{"mode"})
)
