//go:build (386 || arm || mips || mipsle || wasm) && !gridsync_disable_padding && !gridsync_enable_padding

package opt

import "sync/atomic"

// Cell_ is the storage of a lock cell.
// Padding is disabled by default for 32-bit architectures
// (386, arm, mips, mipsle, wasm): smaller cache lines and memory constraints.
type Cell_ struct {
	V atomic.Int32
}
