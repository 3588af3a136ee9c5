//go:build gridsync_enable_padding

package opt

import (
	"sync/atomic"
	"unsafe"
)

// Cell_ is the storage of a lock cell, padded to a full cache line so
// that groups polling neighbouring cells do not invalidate each other.
// Padding is force-enabled via the gridsync_enable_padding build tag.
// Use: go build -tags=gridsync_enable_padding
type Cell_ struct {
	V atomic.Int32
	_ [(CacheLineSize_ - unsafe.Sizeof(atomic.Int32{})%CacheLineSize_) % CacheLineSize_]byte
}
