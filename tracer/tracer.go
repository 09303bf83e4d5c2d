// Package tracer records cycle counts for labeled sections of guest
// execution. The guest side serializes events into compact frames through an
// explicit Tracer handle; the host side decodes the frame stream back into
// per-section records with call depths.
package tracer

import (
	"encoding/binary"
	"io"
)

// Event kinds on the wire.
const (
	kindBegin byte = iota
	kindEnd
	kindComplete
	kindEvent
)

// frameHeaderSize is the fixed part of a frame: u16 length prefix, kind
// byte, u64 cycle count.
const frameHeaderSize = 2 + 1 + 8

// defaultBufSize holds the header plus labels up to 37 bytes, which covers
// every opcode and precompile label without allocation.
const defaultBufSize = 48

// Tracer is the guest-side handle for marking traced sections. Handles are
// passed explicitly so call sites that do not trace pay nothing via
// NopTracer.
type Tracer interface {
	// Begin marks the start of a labeled section.
	Begin(label string)
	// End marks the end of the innermost section with this label.
	End(label string)
	// Emit records an instantaneous event at the current cycle count.
	Emit(event string)
}

// NopTracer discards everything.
type NopTracer struct{}

func (NopTracer) Begin(string) {}
func (NopTracer) End(string)   {}
func (NopTracer) Emit(string)  {}

// CycleTracer serializes trace events into frames on w.
//
// Consecutive Begin/End pairs with no event in between fold into a single
// complete frame carrying the cycle difference, which keeps leaf sections at
// one write each. The serialization buffer is fixed at 48 bytes; a label
// that does not fit grows it once, and a second overflow panics, treating a
// runaway label source as resource exhaustion rather than degrading the
// trace.
type CycleTracer struct {
	w     io.Writer
	clock func() uint64
	buf   []byte
	grown bool

	pendingLabel  string
	pendingCycles uint64
	pending       bool
}

// NewCycleTracer creates a tracer writing frames to w. clock supplies the
// current cycle count; nil means a zero clock, which lets instrumented code
// run on the host with the trace discarded by structure rather than by
// build tags.
func NewCycleTracer(w io.Writer, clock func() uint64) *CycleTracer {
	if clock == nil {
		clock = func() uint64 { return 0 }
	}
	return &CycleTracer{w: w, clock: clock, buf: make([]byte, defaultBufSize)}
}

// Begin records the start of a section. A pending unflushed Begin from a
// previous call is written out first, so nesting works without the caller
// doing anything.
func (t *CycleTracer) Begin(label string) {
	cycles := t.clock()
	if t.pending {
		t.send(kindBegin, t.pendingLabel, t.pendingCycles)
	}
	t.pendingLabel = label
	t.pendingCycles = cycles
	t.pending = true
}

// End records the end of a section. If it closes the Begin still sitting in
// the combining slot, a single complete frame with the net cycles goes out
// instead of a Begin/End pair.
func (t *CycleTracer) End(label string) {
	cycles := t.clock()
	if t.pending {
		t.pending = false
		if t.pendingLabel == label {
			t.send(kindComplete, label, cycles-t.pendingCycles)
			return
		}
		t.send(kindBegin, t.pendingLabel, t.pendingCycles)
	}
	t.send(kindEnd, label, cycles)
}

// Emit records a point event, flushing any pending Begin first so ordering
// on the wire matches program order.
func (t *CycleTracer) Emit(event string) {
	cycles := t.clock()
	if t.pending {
		t.pending = false
		t.send(kindBegin, t.pendingLabel, t.pendingCycles)
	}
	t.send(kindEvent, event, cycles)
}

// Flush writes out a pending Begin, for use before the guest halts.
func (t *CycleTracer) Flush() {
	if t.pending {
		t.pending = false
		t.send(kindBegin, t.pendingLabel, t.pendingCycles)
	}
}

func (t *CycleTracer) send(kind byte, label string, cycles uint64) {
	need := frameHeaderSize + len(label)
	if need > len(t.buf) {
		if t.grown || need > 0xffff {
			panic("tracer: frame buffer exhausted")
		}
		t.grown = true
		size := 2 * len(t.buf)
		if size < need {
			size = need
		}
		t.buf = make([]byte, size)
	}
	binary.LittleEndian.PutUint16(t.buf, uint16(need))
	t.buf[2] = kind
	binary.LittleEndian.PutUint64(t.buf[3:], cycles)
	copy(t.buf[frameHeaderSize:], label)
	t.w.Write(t.buf[:need])
}
