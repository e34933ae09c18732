package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ridesharing/internal/domain"
	"ridesharing/internal/redis"
	"ridesharing/internal/repository"
	"ridesharing/internal/service"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	GetError    error
	UpdateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *trip
	m.trips[trip.ID] = &cp
}

// TripCount returns the number of stored trips.
func (m *MockTripRepository) TripCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *trip
	m.trips[trip.ID] = &cp
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *trip
	return &cp, nil
}

func (m *MockTripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *trip
	m.trips[trip.ID] = &cp
	return nil
}

func (m *MockTripRepository) GetActiveByRiderID(ctx context.Context, riderID string) (*domain.Trip, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, trip := range m.trips {
		if trip.RiderID == riderID && trip.Active() {
			cp := *trip
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockTripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, trip := range m.trips {
		if trip.DriverID == driverID && trip.Active() {
			cp := *trip
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockTripRepository) ListByRiderID(ctx context.Context, riderID string, limit int) ([]*domain.Trip, error) {
	return m.list(func(t *domain.Trip) bool { return t.RiderID == riderID }, limit)
}

func (m *MockTripRepository) ListByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Trip, error) {
	return m.list(func(t *domain.Trip) bool { return t.DriverID == driverID }, limit)
}

func (m *MockTripRepository) list(match func(*domain.Trip) bool, limit int) ([]*domain.Trip, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Trip
	for _, trip := range m.trips {
		if match(trip) {
			cp := *trip
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.DriverProfile

	// Counters for verification
	SetAvailabilityCallCount int32

	// Error injection
	GetError             error
	SetAvailabilityError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.DriverProfile),
	}
}

// AddDriver adds a driver profile to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.DriverProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *driver
	m.drivers[driver.ID] = &cp
}

// Driver returns the stored profile for verification, nil when absent.
func (m *MockDriverRepository) Driver(id string) *domain.DriverProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil
	}
	cp := *driver
	return &cp
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.DriverProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *driver
	m.drivers[driver.ID] = &cp
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.DriverProfile, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *driver
	return &cp, nil
}

func (m *MockDriverRepository) GetAvailable(ctx context.Context) ([]*domain.DriverProfile, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.DriverProfile
	for _, driver := range m.drivers {
		if driver.Available {
			cp := *driver
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockDriverRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	atomic.AddInt32(&m.SetAvailabilityCallCount, 1)
	if m.SetAvailabilityError != nil {
		return m.SetAvailabilityError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Available = available
	return nil
}

func (m *MockDriverRepository) AdjustActiveRides(ctx context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.ActiveRideCount += delta
	if driver.ActiveRideCount < 0 {
		driver.ActiveRideCount = 0
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK COUPON REPOSITORY
// ──────────────────────────────────────────────

// MockCouponRepository is a mock implementation of CouponRepository.
// IncrementUsage performs its limit check and increment under one lock,
// matching the atomicity of the SQL conditional update.
type MockCouponRepository struct {
	mu      sync.Mutex
	coupons map[string]*domain.Coupon

	// Counters for verification
	IncrementCallCount int32

	// Error injection
	GetError       error
	IncrementError error
}

// NewMockCouponRepository creates a new mock coupon repository.
func NewMockCouponRepository() *MockCouponRepository {
	return &MockCouponRepository{
		coupons: make(map[string]*domain.Coupon),
	}
}

// AddCoupon adds a coupon to the mock repository.
func (m *MockCouponRepository) AddCoupon(coupon *domain.Coupon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *coupon
	m.coupons[coupon.Code] = &cp
}

// UsedCount returns the stored usage counter for verification.
func (m *MockCouponRepository) UsedCount(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	coupon, ok := m.coupons[code]
	if !ok {
		return 0
	}
	return coupon.UsedCount
}

func (m *MockCouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *coupon
	m.coupons[coupon.Code] = &cp
	return nil
}

func (m *MockCouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	coupon, ok := m.coupons[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *coupon
	return &cp, nil
}

func (m *MockCouponRepository) GetAll(ctx context.Context) ([]*domain.Coupon, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Coupon
	for _, coupon := range m.coupons {
		cp := *coupon
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MockCouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.coupons[coupon.Code]; !ok {
		return repository.ErrNotFound
	}
	cp := *coupon
	m.coupons[coupon.Code] = &cp
	return nil
}

func (m *MockCouponRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	atomic.AddInt32(&m.IncrementCallCount, 1)
	if m.IncrementError != nil {
		return false, m.IncrementError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	coupon, ok := m.coupons[code]
	if !ok {
		return false, nil
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return false, nil
	}
	coupon.UsedCount++
	return true, nil
}

func (m *MockCouponRepository) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.coupons[code]; !ok {
		return repository.ErrNotFound
	}
	delete(m.coupons, code)
	return nil
}

// ──────────────────────────────────────────────
// MOCK UNIT OF WORK
// ──────────────────────────────────────────────

// MockUnitOfWork hands fn the shared mock repositories. There is no real
// transaction; mutations made before fn fails are not rolled back, so tests
// asserting atomicity must check the repositories directly.
type MockUnitOfWork struct {
	Trips   *MockTripRepository
	Drivers *MockDriverRepository
	Coupons *MockCouponRepository

	RunCallCount int32

	// Error injection: fail before fn runs.
	BeginError error
}

// NewMockUnitOfWork creates a unit of work backed by fresh mock repositories.
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		Trips:   NewMockTripRepository(),
		Drivers: NewMockDriverRepository(),
		Coupons: NewMockCouponRepository(),
	}
}

func (m *MockUnitOfWork) Run(ctx context.Context, fn func(repos service.Repos) error) error {
	atomic.AddInt32(&m.RunCallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}
	return fn(service.Repos{
		Trips:   m.Trips,
		Drivers: m.Drivers,
		Coupons: m.Coupons,
	})
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// DenyAll makes every acquisition report the lock as held.
	DenyAll bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

// Held reports whether a lock key is currently held.
func (m *MockLockStore) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[key]
}

func (m *MockLockStore) acquire(key string) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.DenyAll {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MockLockStore) release(key string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	return m.acquire("driver:" + driverID)
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	return m.release("driver:" + driverID)
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	return m.acquire("trip:" + tripID)
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	return m.release("trip:" + tripID)
}

func (m *MockLockStore) AcquireRiderLock(ctx context.Context, riderID string, ttl time.Duration) (bool, error) {
	return m.acquire("rider:" + riderID)
}

func (m *MockLockStore) ReleaseRiderLock(ctx context.Context, riderID string) error {
	return m.release("rider:" + riderID)
}

// Hold marks a lock key as held, simulating another process owning it.
func (m *MockLockStore) Hold(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[key] = true
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Error injection
	GetError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of CacheStoreInterface.
type MockCacheStore struct {
	mu        sync.Mutex
	drivers   map[string]*redis.CachedDriver
	available map[string]bool
	trips     map[string]*domain.Trip

	// Counters for verification
	GetTripCallCount        int32
	SetTripCallCount        int32
	InvalidateTripCallCount int32
	DriversBatchCallCount   int32

	// Error injection
	GetError error
	SetError error
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		drivers:   make(map[string]*redis.CachedDriver),
		available: make(map[string]bool),
		trips:     make(map[string]*domain.Trip),
	}
}

// SeedDriver stores a cached driver and marks it available.
func (m *MockCacheStore) SeedDriver(driver *redis.CachedDriver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *driver
	m.drivers[driver.ID] = &cp
	m.available[driver.ID] = true
}

// SeedTrip stores a cached trip copy.
func (m *MockCacheStore) SeedTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *trip
	m.trips[trip.ID] = &cp
}

// CachedTrip returns the stored trip copy for verification, nil when absent.
func (m *MockCacheStore) CachedTrip(tripID string) *domain.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return nil
	}
	cp := *trip
	return &cp
}

// AvailableContains reports whether the driver is in the available set.
func (m *MockCacheStore) AvailableContains(driverID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available[driverID]
}

func (m *MockCacheStore) GetDriversBatch(ctx context.Context, driverIDs []string) (map[string]*redis.CachedDriver, []string, error) {
	atomic.AddInt32(&m.DriversBatchCallCount, 1)
	if m.GetError != nil {
		return nil, nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	found := make(map[string]*redis.CachedDriver)
	var missing []string
	for _, id := range driverIDs {
		driver, ok := m.drivers[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		cp := *driver
		found[id] = &cp
	}
	return found, missing, nil
}

func (m *MockCacheStore) SetDriversBatch(ctx context.Context, drivers []*redis.CachedDriver) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, driver := range drivers {
		cp := *driver
		m.drivers[driver.ID] = &cp
	}
	return nil
}

func (m *MockCacheStore) InvalidateDriver(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drivers, driverID)
	return nil
}

func (m *MockCacheStore) GetAvailableDrivers(ctx context.Context) ([]string, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id := range m.available {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MockCacheStore) AddAvailableDriver(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available[driverID] = true
	return nil
}

func (m *MockCacheStore) RemoveAvailableDriver(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.available, driverID)
	return nil
}

func (m *MockCacheStore) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	atomic.AddInt32(&m.GetTripCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return nil, nil
	}
	cp := *trip
	return &cp, nil
}

func (m *MockCacheStore) SetTrip(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.SetTripCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *trip
	m.trips[trip.ID] = &cp
	return nil
}

func (m *MockCacheStore) InvalidateTrip(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.InvalidateTripCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trips, tripID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher is a mock implementation of PublisherInterface.
type MockPublisher struct {
	mu     sync.Mutex
	events []string

	// Counters for verification
	LocationCallCount  int32
	TripEventCallCount int32

	// Error injection
	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Events returns the published trip states in order.
func (m *MockPublisher) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockPublisher) PublishLocation(ctx context.Context, sample domain.LocationSample) error {
	atomic.AddInt32(&m.LocationCallCount, 1)
	return m.PublishError
}

func (m *MockPublisher) PublishTripEvent(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.TripEventCallCount, 1)
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, string(trip.State))
	return nil
}

// Interface checks.
var (
	_ repository.TripRepository   = (*MockTripRepository)(nil)
	_ repository.DriverRepository = (*MockDriverRepository)(nil)
	_ repository.CouponRepository = (*MockCouponRepository)(nil)
	_ repository.UserRepository   = (*MockUserRepository)(nil)
	_ service.UnitOfWork          = (*MockUnitOfWork)(nil)
	_ redis.LockStoreInterface    = (*MockLockStore)(nil)
	_ redis.CacheStoreInterface   = (*MockCacheStore)(nil)
	_ redis.PublisherInterface    = (*MockPublisher)(nil)
)
