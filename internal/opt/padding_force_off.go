//go:build gridsync_disable_padding

package opt

import "sync/atomic"

// Cell_ is the storage of a lock cell.
// Padding is force-disabled via the gridsync_disable_padding build tag.
// Use: go build -tags=gridsync_disable_padding
type Cell_ struct {
	V atomic.Int32
}
