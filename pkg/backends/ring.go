package backends

import (
	"sync"
	"time"

	"github.com/wayneeseguin/platformlog/pkg/severity"
)

// DefaultRingSize is the capacity used when a RingBuffer is created with a
// non-positive size
const DefaultRingSize = 1024

// RingBuffer is an in-process circular log buffer. Once full, each write
// overwrites the oldest entry.
type RingBuffer struct {
	mu      sync.Mutex
	entries []BufferEntry
	next    int
	full    bool
	dropped uint64
	now     func() time.Time
}

// NewRingBuffer creates a ring buffer holding up to size entries
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{
		entries: make([]BufferEntry, size),
		now:     time.Now,
	}
}

// WriteBuffer implements BufferLog
func (r *RingBuffer) WriteBuffer(priority severity.BufferPriority, tag, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.full {
		r.dropped++
	}
	r.entries[r.next] = BufferEntry{Time: r.now(), Priority: priority, Tag: tag, Text: text}
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// Entries returns the buffered entries, oldest first
func (r *RingBuffer) Entries() []BufferEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		return append([]BufferEntry(nil), r.entries[:r.next]...)
	}
	out := make([]BufferEntry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	return append(out, r.entries[:r.next]...)
}

// Len returns the number of buffered entries
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Dropped returns how many entries have been overwritten
func (r *RingBuffer) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
