package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncPropertyCreated() {}
func (n *NoopRecorder) IncPropertyUpdated() {}
func (n *NoopRecorder) IncPropertyDeleted() {}
func (n *NoopRecorder) IncRatingSubmitted() {}
func (n *NoopRecorder) IncUserRegistered(created bool) {}
func (n *NoopRecorder) IncAuthzDenied(reason string) {}
func (n *NoopRecorder) IncFeaturedCacheHit() {}
func (n *NoopRecorder) IncFeaturedCacheMiss() {}
func (n *NoopRecorder) ObserveVerifyDuration(d time.Duration) {}
