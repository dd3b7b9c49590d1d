package playback

import "sync"

// Tap keeps a mono mix of the most recent output samples in a ring buffer so
// the analyser can read a window without touching the audio pipeline.
type Tap struct {
	mu     sync.Mutex
	buf    []float64
	pos    int
	filled int
}

// NewTap allocates a ring buffer holding size samples.
func NewTap(size int) *Tap {
	if size <= 0 {
		size = 1
	}
	return &Tap{buf: make([]float64, size)}
}

// Write records a block of stereo frames as mono.
func (t *Tap) Write(samples [][2]float64) {
	t.mu.Lock()
	size := len(t.buf)
	for i := range samples {
		t.buf[t.pos] = (samples[i][0] + samples[i][1]) / 2
		t.pos = (t.pos + 1) % size
	}
	t.filled = min(t.filled+len(samples), size)
	t.mu.Unlock()
}

// ReadLatest copies the newest len(dst) samples into dst in chronological
// order and returns how many were available. When fewer samples have been
// written, they are placed at the end of dst and the head is zeroed.
func (t *Tap) ReadLatest(dst []float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := len(t.buf)
	n := min(len(dst), t.filled)
	pad := len(dst) - n
	for i := 0; i < pad; i++ {
		dst[i] = 0
	}
	start := (t.pos - n + size) % size
	for i := 0; i < n; i++ {
		dst[pad+i] = t.buf[(start+i)%size]
	}
	return n
}

// Reset forgets every recorded sample.
func (t *Tap) Reset() {
	t.mu.Lock()
	clear(t.buf)
	t.pos = 0
	t.filled = 0
	t.mu.Unlock()
}
