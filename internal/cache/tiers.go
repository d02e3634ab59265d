package cache

import (
	"context"
	"time"
)

// Tier names. The four tiers share one implementation and differ only in
// default TTL and expected churn.
const (
	TierStatic   = "static"   // catalog data, rarely changes
	TierDynamic  = "dynamic"  // per-user progress snapshots
	TierSession  = "session"  // login-session scoped reads
	TierRealtime = "realtime" // sub-minute freshness (leaderboards, rooms)
)

// Default TTLs per tier.
const (
	DefaultStaticTTL   = 1 * time.Hour
	DefaultDynamicTTL  = 5 * time.Minute
	DefaultSessionTTL  = 30 * time.Minute
	DefaultRealtimeTTL = 30 * time.Second
)

// Shared key prefixes. Writers invalidate by these; readers build concrete
// keys by appending the user ID.
const (
	PrefixQuests  = "quests_"
	PrefixFriends = "friends_"
	PrefixProfile = "profile_"
)

// Tiers holds the four process-wide cache instances. Constructed once at
// startup; components only see the get/set/invalidate contract and never
// reach into another tier's storage.
type Tiers struct {
	Static   *Cache
	Dynamic  *Cache
	Session  *Cache
	Realtime *Cache
}

// NewTiers constructs the four tiers with their default TTLs.
func NewTiers() *Tiers {
	return &Tiers{
		Static:   New(TierStatic, DefaultStaticTTL),
		Dynamic:  New(TierDynamic, DefaultDynamicTTL),
		Session:  New(TierSession, DefaultSessionTTL),
		Realtime: New(TierRealtime, DefaultRealtimeTTL),
	}
}

// All returns the tiers in a fixed order for stats reporting.
func (t *Tiers) All() []*Cache {
	return []*Cache{t.Static, t.Dynamic, t.Session, t.Realtime}
}

// ClearAll empties every tier.
func (t *Tiers) ClearAll() {
	for _, c := range t.All() {
		c.Clear()
	}
}

// StartJanitor sweeps expired entries from every tier at the given interval
// until ctx is cancelled. Purge timing is not observable through Get, so the
// sweep is purely a memory bound.
func (t *Tiers) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, c := range t.All() {
					c.Purge()
				}
			}
		}
	}()
}
