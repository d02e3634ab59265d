package concurrency

import (
	"sync"
)

// FlightGroup collapses concurrent calls that share a key into a single
// execution; late arrivals wait for the in-flight call and share its result.
//
// This is a contention/ordering optimization only. It does NOT make the
// guarded operation safe on its own: the authoritative store may be written
// concurrently from other processes, so correctness still rests on the
// store-level compare-and-set transaction.
type FlightGroup[V any] struct {
	mu    sync.Mutex
	calls map[string]*flightCall[V]
}

type flightCall[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// NewFlightGroup creates an empty flight group.
func NewFlightGroup[V any]() *FlightGroup[V] {
	return &FlightGroup[V]{
		calls: make(map[string]*flightCall[V]),
	}
}

// Do executes fn for key unless a call for the same key is already in
// flight, in which case it blocks and returns that call's result. The shared
// flag reports whether the result came from another caller's execution.
func (g *FlightGroup[V]) Do(key string, fn func() (V, error)) (v V, shared bool, err error) {
	g.mu.Lock()
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-c.done
		return c.val, true, c.err
	}

	c := &flightCall[V]{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
	close(c.done)

	return c.val, false, c.err
}

// InFlight reports whether a call for key is currently executing.
func (g *FlightGroup[V]) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.calls[key]
	return ok
}
