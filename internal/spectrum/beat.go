package spectrum

// BeatState is a fixed-capacity FIFO of recent bass energies plus the rule
// that decides whether the current frame is a beat.
type BeatState struct {
	values []float64
	start  int
	count  int
	ratio  float64
	floor  float64
}

// NewBeatState returns an empty history. A frame is a beat when its bass
// energy exceeds both ratio times the history mean and floor.
func NewBeatState(capacity int, ratio, floor float64) *BeatState {
	if capacity <= 0 {
		capacity = 10
	}
	return &BeatState{values: make([]float64, capacity), ratio: ratio, floor: floor}
}

// Capacity returns the maximum history length.
func (b *BeatState) Capacity() int { return len(b.values) }

// Len returns the number of stored entries.
func (b *BeatState) Len() int { return b.count }

// Average returns the mean of the history, or 0 when empty.
func (b *BeatState) Average() float64 {
	if b.count == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < b.count; i++ {
		sum += b.values[(b.start+i)%len(b.values)]
	}
	return sum / float64(b.count)
}

// Evaluate reports whether current is a beat against the stored history. It
// does not modify the history.
func (b *BeatState) Evaluate(current float64) bool {
	return current > b.Average()*b.ratio && current > b.floor
}

// Push appends v, evicting the oldest entry once full.
func (b *BeatState) Push(v float64) {
	size := len(b.values)
	if b.count < size {
		b.values[(b.start+b.count)%size] = v
		b.count++
		return
	}
	b.values[b.start] = v
	b.start = (b.start + 1) % size
}

// Observe evaluates current and then records it.
func (b *BeatState) Observe(current float64) bool {
	beat := b.Evaluate(current)
	b.Push(current)
	return beat
}

// Values copies the history, oldest first, into dst and returns it.
func (b *BeatState) Values(dst []float64) []float64 {
	dst = dst[:0]
	for i := 0; i < b.count; i++ {
		dst = append(dst, b.values[(b.start+i)%len(b.values)])
	}
	return dst
}
