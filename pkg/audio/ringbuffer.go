// Package audio implements the bounded sample queue between the APU's
// resampler and the presentation layer's audio callback: a fixed-capacity
// ring buffer guarded by a mutex because the producer (emulation thread) and
// consumer (audio device callback) run concurrently.
package audio

import "sync"

// RingBuffer is a fixed-capacity circular buffer of float32 samples with
// non-blocking push/pop. A full buffer signals back-pressure to the producer
// instead of growing or blocking.
type RingBuffer struct {
	mu     sync.Mutex
	data   []float32
	wp     int
	rp     int
	remain int
}

// NewRingBuffer creates a ring buffer with the given sample capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{data: make([]float32, capacity)}
}

// TryPush appends a sample. It reports false without blocking if the buffer
// is full.
func (r *RingBuffer) TryPush(v float32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.remain >= len(r.data) {
		return false
	}
	r.data[r.wp] = v
	r.wp++
	if r.wp >= len(r.data) {
		r.wp = 0
	}
	r.remain++
	return true
}

// TryPop removes and returns the oldest sample. It reports false without
// blocking if the buffer is empty.
func (r *RingBuffer) TryPop() (float32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.remain == 0 {
		return 0, false
	}
	v := r.data[r.rp]
	r.rp++
	if r.rp >= len(r.data) {
		r.rp = 0
	}
	r.remain--
	return v, true
}

// Len reports the number of samples currently queued.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remain
}

// Full reports whether the buffer has no room for another sample.
func (r *RingBuffer) Full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remain >= len(r.data)
}
