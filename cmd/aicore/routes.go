package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type taskHandler interface {
	ProcessTask(http.ResponseWriter, *http.Request)
	SubmitTask(http.ResponseWriter, *http.Request)
	TaskStatus(http.ResponseWriter, *http.Request)
	HealthCheck(http.ResponseWriter, *http.Request)
	MetricsSnapshot(http.ResponseWriter, *http.Request)
}

func buildMux(h taskHandler) *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("GET /health/live", h.HealthCheck)
	mux.HandleFunc("GET /health/ready", h.HealthCheck)

	// Task endpoints
	mux.HandleFunc("POST /v1/tasks", h.ProcessTask)
	mux.HandleFunc("POST /v1/tasks/async", h.SubmitTask)
	mux.HandleFunc("GET /v1/tasks/{id}", h.TaskStatus)

	// Metrics: JSON aggregates and Prometheus exposition
	mux.HandleFunc("GET /v1/metrics", h.MetricsSnapshot)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
