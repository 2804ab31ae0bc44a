package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts HTTP requests by endpoint and status code
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syntaxis_http_requests_total",
		Help: "Total HTTP requests by endpoint and status",
	}, []string{"endpoint", "status"})

	// parseDuration tracks the time spent analyzing one request
	parseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "syntaxis_parse_duration_seconds",
		Help:    "Pipeline duration per request in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	// sentencesTotal counts analyzed sentences by result
	sentencesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syntaxis_sentences_total",
		Help: "Total sentences analyzed by result",
	}, []string{"result"})

	// reloadsTotal counts rule reloads by result
	reloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syntaxis_rule_reloads_total",
		Help: "Total rule file reloads by result",
	}, []string{"result"})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syntaxis_rate_limited_total",
		Help: "Parse requests rejected by the rate limiter",
	})
)
