// Package metrics holds the prometheus collectors shared by the fetch and cache layers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchAttempts counts single HTTP attempts by outcome: ok, network, status, format.
	FetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bloglist",
		Subsystem: "fetch",
		Name:      "attempts_total",
		Help:      "HTTP attempts made against the item endpoint, by outcome.",
	}, []string{"outcome"})

	// FetchFailures counts fetches that surfaced an error after the retry policy gave up.
	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bloglist",
		Subsystem: "fetch",
		Name:      "failures_total",
		Help:      "Fetches that failed after exhausting retries or on a format error.",
	})

	// CacheLookups counts collection lookups by result: hit, persisted, miss, corrupt.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bloglist",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Collection lookups served by the cache layer, by result.",
	}, []string{"result"})
)
