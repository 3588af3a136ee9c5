//go:build !gridsync_debug

package opt

// Debug_ enables spin accounting in Semaphore.Wait.
// Use: go build -tags=gridsync_debug
const Debug_ = false

// SpinLimit_ is unused in release builds.
const SpinLimit_ = 0
