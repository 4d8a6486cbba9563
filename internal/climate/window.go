package climate

import (
	"math"
)

// RollingWindow holds the most recent values of a series in a fixed-capacity ring buffer.
type RollingWindow struct {
	values  []float64
	scratch []float64
	next    int
	count   int
}

// NewRollingWindow creates a window that keeps at most size values. Sizes below one are
// treated as one.
func NewRollingWindow(size int) *RollingWindow {
	if size < 1 {
		size = 1
	}
	return &RollingWindow{
		values:  make([]float64, size),
		scratch: make([]float64, 0, size),
	}
}

// Push appends v, evicting the oldest value once the window is full.
func (w *RollingWindow) Push(v float64) {
	w.values[w.next] = v
	w.next = (w.next + 1) % len(w.values)
	if w.count < len(w.values) {
		w.count++
	}
}

// Len returns the number of values currently held.
func (w *RollingWindow) Len() int {
	return w.count
}

// Size returns the capacity of the window.
func (w *RollingWindow) Size() int {
	return len(w.values)
}

// MeanStd returns the mean and sample standard deviation of the values in the window.
// The standard deviation is NaN while the window holds a single value; both are NaN when
// the window is empty.
func (w *RollingWindow) MeanStd() (mean, std float64) {
	if w.count == 0 {
		return math.NaN(), math.NaN()
	}

	// Values are summarised in arrival order so results do not depend on where the ring
	// buffer currently wraps.
	w.scratch = w.scratch[:0]
	start := (w.next - w.count + len(w.values)) % len(w.values)
	for i := 0; i < w.count; i++ {
		w.scratch = append(w.scratch, w.values[(start+i)%len(w.values)])
	}

	if w.count == 1 {
		return w.scratch[0], math.NaN()
	}
	return meanStd(w.scratch)
}
