//go:build !(386 || arm || mips || mipsle || wasm) && !gridsync_disable_padding && !gridsync_enable_padding

package opt

import (
	"sync/atomic"
	"unsafe"
)

// Cell_ is the storage of a lock cell, padded to a full cache line.
//
// Every waiting group polls its cell in a tight loop, so two cells sharing
// a line turn one group's release into a coherence miss for its neighbours.
// Padding is enabled by default for 64-bit architectures
// (amd64, arm64, s390x, ppc64, ppc64le, riscv64, loong64, mips64, ...).
type Cell_ struct {
	V atomic.Int32
	_ [(CacheLineSize_ - unsafe.Sizeof(atomic.Int32{})%CacheLineSize_) % CacheLineSize_]byte
}
