package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes recorded in canvas_pagination_runs_total.
const (
	outcomeComplete  = "complete"
	outcomeTruncated = "truncated"
	outcomeAbandoned = "abandoned"
	outcomeCanceled  = "canceled"
	outcomeError     = "error"
)

var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvas_pages_fetched_total",
		Help: "Total number of pages handed out by paginators",
	})

	paginationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canvas_pagination_runs_total",
		Help: "Total pagination runs by outcome",
	}, []string{"outcome"})

	paginationRunPages = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "canvas_pagination_run_pages",
		Help:    "Number of pages fetched per pagination run",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
	})
)
