// Package fifo implements a fixed-capacity byte ring buffer with
// separate read/write pointers and event-mask-driven producer/consumer
// callbacks, used to decouple an interrupt-driven sample sink from a
// main-loop producer on constrained targets (§4.7).
package fifo

// Event is a bitmask flag describing one FIFO condition.
type Event uint8

const (
	EventEmpty Event = 1 << iota
	EventUnderrun
	EventNew
	EventFull
	EventOverrun
)

// Handler receives one or more simultaneous events for a FIFO.
type Handler func(f *FIFO, events Event)

// FIFO is a ring buffer of bytes with masked event callbacks for each
// side. ProducerData/ConsumerData mirror the original's opaque
// `void*` context pointers (§9's supplemented-feature note) so a
// handler can carry its own state without a per-event closure
// allocation.
type FIFO struct {
	buffer []byte
	readPtr  int
	writePtr int
	storedSz int

	ProducerHandler Handler
	ConsumerHandler Handler
	ProducerMask    Event
	ConsumerMask    Event
	ProducerData    any
	ConsumerData    any
}

// New returns an empty FIFO with the given byte capacity.
func New(capacity int) *FIFO {
	return &FIFO{buffer: make([]byte, capacity)}
}

func (f *FIFO) exec(events Event) {
	if f.ProducerHandler != nil && f.ProducerMask&events != 0 {
		f.ProducerHandler(f, events)
	}
	if f.ConsumerHandler != nil && f.ConsumerMask&events != 0 {
		f.ConsumerHandler(f, events)
	}
}

// Empty discards all buffered bytes without raising events.
func (f *FIFO) Empty() {
	f.storedSz = 0
	f.readPtr = 0
	f.writePtr = 0
}

// Len reports the number of bytes currently stored.
func (f *FIFO) Len() int { return f.storedSz }

// Cap reports the buffer's total byte capacity.
func (f *FIFO) Cap() int { return len(f.buffer) }

// ReadOne reads and removes one byte, or returns -1 and raises
// EventUnderrun if the buffer is empty.
func (f *FIFO) ReadOne() int16 {
	if f.storedSz == 0 {
		f.exec(EventUnderrun)
		return -1
	}

	b := f.buffer[f.readPtr]
	f.storedSz--
	f.readPtr = (f.readPtr + 1) % len(f.buffer)
	if f.storedSz == 0 {
		f.exec(EventEmpty)
	}
	return int16(b)
}

// PeekOne returns the next byte without consuming it, or -1 if empty.
func (f *FIFO) PeekOne() int16 {
	if f.storedSz == 0 {
		return -1
	}
	return int16(f.buffer[f.readPtr])
}

// WriteOne writes one byte, returning false and raising EventOverrun
// if the buffer is full.
func (f *FIFO) WriteOne(b byte) bool {
	if f.storedSz >= len(f.buffer) {
		f.exec(EventOverrun)
		return false
	}

	f.buffer[f.writePtr] = b
	f.storedSz++
	f.writePtr = (f.writePtr + 1) % len(f.buffer)

	f.exec(EventNew)
	if f.storedSz == len(f.buffer) {
		f.exec(EventFull)
	}
	return true
}

// Read drains up to len(p) bytes into p, stopping at the first
// underrun, and returns the count actually read.
func (f *FIFO) Read(p []byte) int {
	n := 0
	for n < len(p) {
		b := f.ReadOne()
		if b < 0 {
			break
		}
		p[n] = byte(b)
		n++
	}
	return n
}

// Peek copies up to len(p) stored bytes into p without consuming them.
func (f *FIFO) Peek(p []byte) int {
	sz := len(p)
	if sz > f.storedSz {
		sz = f.storedSz
	}
	ptr := f.readPtr
	for i := 0; i < sz; i++ {
		p[i] = f.buffer[ptr]
		ptr = (ptr + 1) % len(f.buffer)
	}
	return sz
}

// Write appends as many of p's bytes as fit, stopping at the first
// overrun, and returns the count actually written.
func (f *FIFO) Write(p []byte) int {
	n := 0
	for n < len(p) && f.WriteOne(p[n]) {
		n++
	}
	return n
}
