package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PropertiesCreated     uint64
	PropertiesUpdated     uint64
	PropertiesDeleted     uint64
	RatingsSubmitted      uint64
	UsersCreated          uint64
	UsersExisting         uint64
	AuthzUnauthenticated  uint64
	AuthzForbidden        uint64
	FeaturedCacheHits     uint64
	FeaturedCacheMisses   uint64
	VerifyDurationCount   uint64
	VerifyDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory. It backs /metrics and tests.
type InMemoryRecorder struct {
	propertiesCreated     uint64
	propertiesUpdated     uint64
	propertiesDeleted     uint64
	ratingsSubmitted      uint64
	usersCreated          uint64
	usersExisting         uint64
	authzUnauthenticated  uint64
	authzForbidden        uint64
	featuredCacheHits     uint64
	featuredCacheMisses   uint64
	verifyDurationCount   uint64
	verifyDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		PropertiesCreated:     atomic.LoadUint64(&m.propertiesCreated),
		PropertiesUpdated:     atomic.LoadUint64(&m.propertiesUpdated),
		PropertiesDeleted:     atomic.LoadUint64(&m.propertiesDeleted),
		RatingsSubmitted:      atomic.LoadUint64(&m.ratingsSubmitted),
		UsersCreated:          atomic.LoadUint64(&m.usersCreated),
		UsersExisting:         atomic.LoadUint64(&m.usersExisting),
		AuthzUnauthenticated:  atomic.LoadUint64(&m.authzUnauthenticated),
		AuthzForbidden:        atomic.LoadUint64(&m.authzForbidden),
		FeaturedCacheHits:     atomic.LoadUint64(&m.featuredCacheHits),
		FeaturedCacheMisses:   atomic.LoadUint64(&m.featuredCacheMisses),
		VerifyDurationCount:   atomic.LoadUint64(&m.verifyDurationCount),
		VerifyDurationTotalNs: atomic.LoadInt64(&m.verifyDurationTotalNs),
	}
}

// IncPropertyCreated increments the property created counter.
func (m *InMemoryRecorder) IncPropertyCreated() {
	atomic.AddUint64(&m.propertiesCreated, 1)
}

// IncPropertyUpdated increments the property updated counter.
func (m *InMemoryRecorder) IncPropertyUpdated() {
	atomic.AddUint64(&m.propertiesUpdated, 1)
}

// IncPropertyDeleted increments the property deleted counter.
func (m *InMemoryRecorder) IncPropertyDeleted() {
	atomic.AddUint64(&m.propertiesDeleted, 1)
}

// IncRatingSubmitted increments the rating counter.
func (m *InMemoryRecorder) IncRatingSubmitted() {
	atomic.AddUint64(&m.ratingsSubmitted, 1)
}

// IncUserRegistered counts registrations split by whether a row was created.
func (m *InMemoryRecorder) IncUserRegistered(created bool) {
	if created {
		atomic.AddUint64(&m.usersCreated, 1)
		return
	}
	atomic.AddUint64(&m.usersExisting, 1)
}

// IncAuthzDenied counts authorization denials by reason.
func (m *InMemoryRecorder) IncAuthzDenied(reason string) {
	switch reason {
	case "unauthenticated":
		atomic.AddUint64(&m.authzUnauthenticated, 1)
	default:
		atomic.AddUint64(&m.authzForbidden, 1)
	}
}

// IncFeaturedCacheHit increments the featured cache hit counter.
func (m *InMemoryRecorder) IncFeaturedCacheHit() {
	atomic.AddUint64(&m.featuredCacheHits, 1)
}

// IncFeaturedCacheMiss increments the featured cache miss counter.
func (m *InMemoryRecorder) IncFeaturedCacheMiss() {
	atomic.AddUint64(&m.featuredCacheMisses, 1)
}

// ObserveVerifyDuration records identity verification latency.
func (m *InMemoryRecorder) ObserveVerifyDuration(duration time.Duration) {
	atomic.AddUint64(&m.verifyDurationCount, 1)
	atomic.AddInt64(&m.verifyDurationTotalNs, duration.Nanoseconds())
}
