package gridsync

// Workspace is a dense, host-allocated array of lock cells, typically one
// per output tile of a split reduction. It must be initialized with Reset
// before the launch that synchronizes on it and must outlive that launch.
type Workspace struct {
	cells []Cell
}

// NewWorkspace allocates n cells, all holding phase 0.
//
// panic if n < 0.
func NewWorkspace(n int) *Workspace {
	if n < 0 {
		panic("gridsync: workspace size must not be negative")
	}
	return &Workspace{cells: make([]Cell, n)}
}

// Len returns the number of cells.
func (w *Workspace) Len() int {
	return len(w.cells)
}

// At returns the i-th cell. It panics if i is out of range.
func (w *Workspace) At(i int) *Cell {
	return &w.cells[i]
}

// Reset stores v into every cell.
// It must not run concurrently with a launch using the workspace.
func (w *Workspace) Reset(v int32) {
	for i := range w.cells {
		w.cells[i].Store(v)
	}
}
