package tracker

import (
	"hash/fnv"
	"sync"
	"time"

	"ridesharing/internal/domain"
)

const (
	// maxHistory bounds the per-driver sample history.
	maxHistory = 100

	// minUpdateInterval gates samples arriving too quickly after the last
	// accepted one for the same driver.
	minUpdateInterval = 2 * time.Second

	// minDisplacementMeters gates samples that barely moved. GPS jitter on a
	// parked car produces a stream of sub-10m "movements".
	minDisplacementMeters = 10.0

	// DefaultActiveWindow is how recently a driver must have reported to be
	// considered active.
	DefaultActiveWindow = 5 * time.Minute

	shardCount = 32
)

// driverState is everything the tracker holds for one driver. Guarded by the
// owning shard's lock.
type driverState struct {
	latest       *domain.LocationSample
	history      []domain.LocationSample
	lastAccepted time.Time
}

type shard struct {
	mu      sync.RWMutex
	drivers map[string]*driverState
}

// Tracker keeps the latest and recent location samples per driver, gating
// noisy updates. Operations on a single driver are linearized by that
// driver's shard lock; different drivers proceed in parallel.
type Tracker struct {
	shards [shardCount]*shard
	now    func() time.Time
}

// New creates an empty Tracker.
func New() *Tracker {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty Tracker using the given time source.
func NewWithClock(now func() time.Time) *Tracker {
	t := &Tracker{now: now}
	for i := range t.shards {
		t.shards[i] = &shard{drivers: make(map[string]*driverState)}
	}
	return t
}

func (t *Tracker) shardFor(driverID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(driverID))
	return t.shards[h.Sum32()%shardCount]
}

// Ingest records a sample. Samples without a driver ID are dropped silently.
// A sample is also dropped when the previous accepted sample for the driver
// is under 2 seconds old or under 10 meters away; a driver with no prior
// sample is always accepted. Returns whether the sample was accepted.
func (t *Tracker) Ingest(sample domain.LocationSample) bool {
	if sample.DriverID == "" {
		return false
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = t.now()
	}

	s := t.shardFor(sample.DriverID)
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.drivers[sample.DriverID]
	if !ok {
		state = &driverState{}
		s.drivers[sample.DriverID] = state
	}

	if state.latest != nil && !t.shouldAccept(state, sample) {
		return false
	}

	state.history = append(state.history, sample)
	if len(state.history) > maxHistory {
		state.history = state.history[len(state.history)-maxHistory:]
	}
	state.latest = &sample
	state.lastAccepted = t.now()

	return true
}

// shouldAccept evaluates both gating conditions against the previous
// accepted sample. Caller holds the shard lock.
func (t *Tracker) shouldAccept(state *driverState, sample domain.LocationSample) bool {
	if t.now().Sub(state.lastAccepted) < minUpdateInterval {
		return false
	}

	dist := domain.DistanceKm(state.latest.Point, sample.Point)
	if dist != domain.UnreachableDistance && dist*1000 < minDisplacementMeters {
		return false
	}

	return true
}

// Latest returns the most recent accepted sample for a driver, or false if
// none exists.
func (t *Tracker) Latest(driverID string) (domain.LocationSample, bool) {
	s := t.shardFor(driverID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.drivers[driverID]
	if !ok || state.latest == nil {
		return domain.LocationSample{}, false
	}
	return *state.latest, true
}

// History returns up to limit accepted samples for a driver, oldest first.
func (t *Tracker) History(driverID string, limit int) []domain.LocationSample {
	s := t.shardFor(driverID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.drivers[driverID]
	if !ok || limit <= 0 {
		return nil
	}

	start := 0
	if len(state.history) > limit {
		start = len(state.history) - limit
	}

	out := make([]domain.LocationSample, len(state.history)-start)
	copy(out, state.history[start:])
	return out
}

// Nearby returns the latest samples within radiusKm of center. Drivers
// without a latest sample or with incomplete coordinates are skipped.
func (t *Tracker) Nearby(center domain.GeoPoint, radiusKm float64) []domain.LocationSample {
	var out []domain.LocationSample

	for _, s := range t.shards {
		s.mu.RLock()
		for _, state := range s.drivers {
			if state.latest == nil || !state.latest.Point.Complete() {
				continue
			}
			if domain.DistanceKm(center, state.latest.Point) <= radiusKm {
				out = append(out, *state.latest)
			}
		}
		s.mu.RUnlock()
	}

	return out
}

// ActiveDrivers returns the IDs of drivers whose last accepted sample is
// within the window. A non-positive window falls back to DefaultActiveWindow.
func (t *Tracker) ActiveDrivers(window time.Duration) []string {
	if window <= 0 {
		window = DefaultActiveWindow
	}
	cutoff := t.now().Add(-window)

	var out []string
	for _, s := range t.shards {
		s.mu.RLock()
		for id, state := range s.drivers {
			if state.lastAccepted.After(cutoff) {
				out = append(out, id)
			}
		}
		s.mu.RUnlock()
	}

	return out
}

// Remove drops all tracked state for a driver, e.g. when they go offline.
func (t *Tracker) Remove(driverID string) {
	s := t.shardFor(driverID)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drivers, driverID)
}

// Stats summarizes the tracker's current contents.
type Stats struct {
	TotalDrivers  int `json:"totalDrivers"`
	ActiveDrivers int `json:"activeDrivers"`
}

// Stats returns counts of tracked and recently active drivers.
func (t *Tracker) Stats() Stats {
	total := 0
	for _, s := range t.shards {
		s.mu.RLock()
		total += len(s.drivers)
		s.mu.RUnlock()
	}
	return Stats{
		TotalDrivers:  total,
		ActiveDrivers: len(t.ActiveDrivers(DefaultActiveWindow)),
	}
}
