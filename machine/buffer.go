package machine

import "github.com/K-dizzled/isa-interprerter/program"

// bufferEntry is a single pending write sitting in a FIFO store buffer
// (spec §3).
type bufferEntry struct {
	Loc     string
	Value   int64
	Mode    program.AccessMode
	EventID EventID
}

// fifoBuffer is a plain FIFO queue of bufferEntry, shared by the TSO and
// PSO variants (one per thread under TSO, one per (thread, loc) under
// PSO). A slice used as a queue is sufficient here: these buffers are
// drained from the front and appended at the back, and the interpreter
// never holds more than a handful of pending writes at once.
type fifoBuffer struct {
	entries []bufferEntry
}

func (b *fifoBuffer) push(e bufferEntry) {
	b.entries = append(b.entries, e)
}

func (b *fifoBuffer) empty() bool {
	return len(b.entries) == 0
}

// head returns the oldest pending entry without removing it.
func (b *fifoBuffer) head() (bufferEntry, bool) {
	if len(b.entries) == 0 {
		return bufferEntry{}, false
	}
	return b.entries[0], true
}

// popHead removes and returns the oldest pending entry.
func (b *fifoBuffer) popHead() bufferEntry {
	e := b.entries[0]
	b.entries = b.entries[1:]
	return e
}

// forward returns the value of the newest entry matching loc, implementing
// store forwarding (spec §4.3, testable property 5): "most recent matching
// entry wins".
func (b *fifoBuffer) forward(loc string) (int64, bool) {
	for i := len(b.entries) - 1; i >= 0; i-- {
		if b.entries[i].Loc == loc {
			return b.entries[i].Value, true
		}
	}
	return 0, false
}

func (b *fifoBuffer) clone() *fifoBuffer {
	return &fifoBuffer{entries: append([]bufferEntry(nil), b.entries...)}
}
