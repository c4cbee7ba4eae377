package utils

import (
	"astro-insights/src/models"
)

// -----------------------------------------------------------------------------
// SignalBuffer is a fixed-capacity buffer of transit signals for one user.
// Appending an already-known signal id updates it in place; once the buffer
// is full the oldest signal is evicted.
// -----------------------------------------------------------------------------

type SignalBuffer struct {
	data     []models.MTransitSignal
	position map[string]int // SignalID -> index into data
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewSignalBuffer creates a new buffer with fixed capacity
func NewSignalBuffer(capacity int) *SignalBuffer {
	if capacity <= 0 {
		capacity = 1000 // Default reasonable size
	}

	return &SignalBuffer{
		data:     make([]models.MTransitSignal, capacity),
		position: make(map[string]int, capacity),
		capacity: capacity,
		index:    0,
		size:     0,
	}
}

// -----------------------------------------------------------------------------

// Append adds or refreshes one signal.
func (sb *SignalBuffer) Append(signal models.MTransitSignal) {
	if idx, known := sb.position[signal.SignalID]; known {
		sb.data[idx] = signal
		return
	}

	// Evict whatever currently occupies the write slot
	if sb.size == sb.capacity {
		delete(sb.position, sb.data[sb.index].SignalID)
	}

	sb.data[sb.index] = signal
	sb.position[signal.SignalID] = sb.index
	sb.index = (sb.index + 1) % sb.capacity

	if sb.size < sb.capacity {
		sb.size++
	}
}

// -----------------------------------------------------------------------------

// GetAll returns all buffered signals in insertion order (oldest to newest)
func (sb *SignalBuffer) GetAll() []models.MTransitSignal {
	if sb.size == 0 {
		return []models.MTransitSignal{}
	}

	result := make([]models.MTransitSignal, sb.size)

	// Calculate start index (oldest element)
	var startIdx int
	if sb.size == sb.capacity {
		// Buffer is full, oldest is at current index (wrap-around)
		startIdx = sb.index
	} else {
		startIdx = 0
	}

	for i := 0; i < sb.size; i++ {
		result[i] = sb.data[(startIdx+i)%sb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// PruneEnded drops signals whose window closed before the cutoff and
// compacts the buffer. Returns the number of removed signals.
func (sb *SignalBuffer) PruneEnded(cutoff func(models.MTransitSignal) bool) int {
	if sb.size == 0 {
		return 0
	}

	kept := make([]models.MTransitSignal, 0, sb.size)
	for _, s := range sb.GetAll() {
		if !cutoff(s) {
			kept = append(kept, s)
		}
	}

	removed := sb.size - len(kept)
	if removed == 0 {
		return 0
	}

	sb.Clear()
	for _, s := range kept {
		sb.Append(s)
	}
	return removed
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (sb *SignalBuffer) Size() int {
	return sb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (sb *SignalBuffer) Capacity() int {
	return sb.capacity
}

// -----------------------------------------------------------------------------

// IsFull returns whether buffer is full
func (sb *SignalBuffer) IsFull() bool {
	return sb.size == sb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (sb *SignalBuffer) Clear() {
	sb.index = 0
	sb.size = 0
	sb.position = make(map[string]int, sb.capacity)
}
