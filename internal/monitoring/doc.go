/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the orders
service, tracking HTTP requests, order lookups, downstream and store calls,
and system metrics.

# Features

- HTTP request metrics (latency, throughput, size)
- Order lookup outcomes
- Service call metrics (duration, errors) for the store and downstream
- System metrics (uptime)
- Aggregate snapshot for the health endpoint

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.RecordOrderServed("ok")

	// Time operations
	timer := monitoring.NewTimer(metrics, "store", "get")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
