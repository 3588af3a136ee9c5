//go:build race

package opt

// Race_ reports whether the race detector is enabled. Tests use it to
// shrink iteration counts.
const Race_ = true
