// Package orders provides the in-memory order catalog backing the demo API.
//
// The store simulates a backend database: each query waits a configurable
// latency on an injectable clock and honors context cancellation, so
// traces captured against it show realistic query timing.
//
// Example Usage:
//
//	store := orders.NewStore(orders.Config{QueryLatency: 25 * time.Millisecond})
//	o, err := store.Get(ctx, "42")
package orders
