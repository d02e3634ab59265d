package optimistic

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kowshikb/kidQuest-sub000/internal/metrics"
)

// Controller manages optimistic reward deltas shown to a client before the
// authoritative call confirms them. Each delta is recorded with the exact
// amount applied, so a revert restores precisely the pre-apply value even
// when later deltas are still pending.
type Controller struct {
	mu       sync.Mutex
	balances map[string]int
	pending  map[string]*Pending
}

// Pending is one applied-but-unconfirmed delta.
type Pending struct {
	ID     string
	UserID string
	Delta  int
}

// NewController creates a controller with no known balances.
func NewController() *Controller {
	return &Controller{
		balances: make(map[string]int),
		pending:  make(map[string]*Pending),
	}
}

// Seed sets the confirmed balance for a user, replacing any previous value.
// Called when an authoritative read lands.
func (c *Controller) Seed(userID string, balance int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[userID] = balance
}

// Balance returns the currently displayed balance: the confirmed value plus
// every pending delta.
func (c *Controller) Balance(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[userID]
}

// Apply adds delta to the displayed balance immediately and returns a pending
// record to be reconciled or reverted once the authoritative call finishes.
func (c *Controller) Apply(userID string, delta int) *Pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &Pending{
		ID:     uuid.NewString(),
		UserID: userID,
		Delta:  delta,
	}
	c.balances[userID] += delta
	c.pending[p.ID] = p
	return p
}

// Reconcile confirms a pending delta against the authoritative total. The
// displayed balance snaps to the server value, which silently absorbs any
// drift between the optimistic guess and what the server actually applied.
func (c *Controller) Reconcile(p *Pending, authoritativeTotal int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[p.ID]; !ok {
		return fmt.Errorf("pending delta %s already settled", p.ID)
	}
	delete(c.pending, p.ID)

	// Re-apply deltas still outstanding for this user on top of the
	// confirmed value.
	c.balances[p.UserID] = authoritativeTotal
	for _, other := range c.pending {
		if other.UserID == p.UserID {
			c.balances[p.UserID] += other.Delta
		}
	}
	return nil
}

// Revert rolls back a pending delta after the authoritative call failed,
// subtracting exactly the amount Apply added.
func (c *Controller) Revert(p *Pending) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[p.ID]; !ok {
		return fmt.Errorf("pending delta %s already settled", p.ID)
	}
	delete(c.pending, p.ID)

	c.balances[p.UserID] -= p.Delta
	metrics.OptimisticRollbacks.Inc()
	return nil
}

// PendingCount reports the number of unsettled deltas for a user.
func (c *Controller) PendingCount(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, p := range c.pending {
		if p.UserID == userID {
			n++
		}
	}
	return n
}
