//go:build gridsync_debug

package opt

const Debug_ = true

// SpinLimit_ is the number of polls after which a single Semaphore.Wait
// is considered stuck: no group released the awaited phase, or the group
// that owns it is not resident. Tests may lower it.
var SpinLimit_ = 1 << 20
