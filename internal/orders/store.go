package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
)

var (
	// ErrNotFound indicates no order exists with the requested ID.
	ErrNotFound = errors.New("orders: order not found")
	// ErrInvalidID indicates a malformed order ID.
	ErrInvalidID = errors.New("orders: invalid order id")
)

// Order is a single order on file.
type Order struct {
	ID         string    `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Item       string    `json:"item"`
	Quantity   int       `json:"quantity"`
	Total      float64   `json:"total"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidateID checks that an order ID is a plain decimal number.
func ValidateID(id string) error {
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Config tunes the store.
type Config struct {
	// QueryLatency simulates per-query backend latency
	QueryLatency time.Duration
	// Clock drives the simulated latency, defaults to the wall clock
	Clock clockz.Clock
}

// Store is an in-memory order catalog with simulated query latency.
type Store struct {
	mu      sync.RWMutex
	orders  map[string]Order
	clock   clockz.Clock
	latency time.Duration
}

// NewStore creates a store seeded with a small catalog.
func NewStore(cfg Config) *Store {
	clock := cfg.Clock
	if clock == nil {
		clock = clockz.RealClock
	}

	s := &Store{
		orders:  make(map[string]Order, len(seedOrders)),
		clock:   clock,
		latency: cfg.QueryLatency,
	}
	for _, o := range seedOrders {
		s.orders[o.ID] = o
	}
	return s
}

// Get returns the order with the given ID. The simulated query honors
// context cancellation.
func (s *Store) Get(ctx context.Context, id string) (Order, error) {
	if err := s.wait(ctx); err != nil {
		return Order{}, err
	}

	s.mu.RLock()
	o, ok := s.orders[id]
	s.mu.RUnlock()

	if !ok {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return o, nil
}

// List returns all orders sorted by numeric ID.
func (s *Store) List(ctx context.Context) ([]Order, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if len(out[i].ID) != len(out[j].ID) {
			return len(out[i].ID) < len(out[j].ID)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Len returns the number of orders on file.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-s.clock.After(s.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// seedOrders is the demo catalog. IDs are stable so traces captured
// against a fresh instance stay reproducible.
var seedOrders = []Order{
	{
		ID:         "1",
		CustomerID: uuid.MustParse("9f36962d-0e4c-4c29-8966-7e2f6e1a5b01"),
		Item:       "mechanical keyboard",
		Quantity:   1,
		Total:      149.00,
		CreatedAt:  time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC),
	},
	{
		ID:         "7",
		CustomerID: uuid.MustParse("c1b24c6a-5d3e-4f8b-b788-0f6f3c2d9e4a"),
		Item:       "usb-c dock",
		Quantity:   2,
		Total:      178.50,
		CreatedAt:  time.Date(2025, time.April, 2, 14, 3, 11, 0, time.UTC),
	},
	{
		ID:         "42",
		CustomerID: uuid.MustParse("5e8d2f7b-9a10-4c55-8e21-d4b6a0c3f192"),
		Item:       "27in monitor",
		Quantity:   1,
		Total:      329.99,
		CreatedAt:  time.Date(2025, time.May, 20, 18, 45, 0, 0, time.UTC),
	},
	{
		ID:         "100",
		CustomerID: uuid.MustParse("2a64e71c-83fd-4a09-9b3d-e5c8f1b0a276"),
		Item:       "thermal paste",
		Quantity:   4,
		Total:      31.96,
		CreatedAt:  time.Date(2025, time.June, 8, 7, 12, 40, 0, time.UTC),
	},
	{
		ID:         "1337",
		CustomerID: uuid.MustParse("e0c95a38-47d2-4d11-a6f4-1b9c8d3e5f07"),
		Item:       "rubber duck",
		Quantity:   12,
		Total:      41.88,
		CreatedAt:  time.Date(2025, time.July, 30, 22, 58, 6, 0, time.UTC),
	},
}
