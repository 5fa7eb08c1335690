// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Listing mutations
	IncPropertyCreated()
	IncPropertyUpdated()
	IncPropertyDeleted()
	IncRatingSubmitted()
	IncUserRegistered(created bool)

	// Authorization outcomes; reason is "unauthenticated" or "forbidden"
	IncAuthzDenied(reason string)

	// Featured listing cache
	IncFeaturedCacheHit()
	IncFeaturedCacheMiss()

	// Identity verification
	ObserveVerifyDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
