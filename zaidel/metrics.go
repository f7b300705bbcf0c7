// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package zaidel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Labels: operation, outcome (ok, error)
	callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "researches",
		Subsystem: "zaidel",
		Name:      "calls_total",
		Help:      "Calls made to the analysis service",
	}, []string{"operation", "outcome"})

	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "researches",
		Subsystem: "zaidel",
		Name:      "call_duration_seconds",
		Help:      "Analysis service call latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"operation"})

	// Labels: result (hit, miss)
	settingsCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "researches",
		Subsystem: "zaidel",
		Name:      "settings_cache_total",
		Help:      "Default settings cache lookups",
	}, []string{"result"})
)
