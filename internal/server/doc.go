// Package server provides HTTP server setup and initialization for the
// orders service.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (request ID, tracing, metrics, CORS, rate limiting)
//   - Span export pipeline (console, collector, or none; sync or batched)
//   - Order store and traced downstream client
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Build the span export pipeline from config
//  4. Seed the order store and downstream client
//  5. Setup HTTP routes and middleware
//  6. Start HTTP server
//  7. Graceful shutdown on signal, flushing buffered spans
//
// Features:
//   - Configuration-driven setup
//   - Graceful shutdown handling
//   - Prometheus metrics endpoint
//   - Health check endpoints
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
