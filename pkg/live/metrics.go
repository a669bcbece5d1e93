package live

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	changesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtside_changes_applied_total",
		Help: "Change-feed notifications applied to the live cache.",
	}, []string{"entity", "op"})

	changesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courtside_changes_discarded_total",
		Help: "Notifications dropped as echoes of changes already applied.",
	})

	staleChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courtside_stale_changes_total",
		Help: "Notifications dropped for belonging to another team.",
	})

	cacheReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courtside_cache_reloads_total",
		Help: "Completed full cache rebuilds.",
	})
)
