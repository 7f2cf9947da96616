package rustgine

import (
	"sync"
	"sync/atomic"
)

// accessGuard keeps per-type reader and writer counts for the systems that
// are currently running. Acquiring a write while any other system holds the
// type, or a read while another system writes it, is a violation. Touching a
// column nobody acquired is a violation too.
type accessGuard struct {
	active  atomic.Int32
	readers [MaxComponentTypes]atomic.Int32
	writers [MaxComponentTypes]atomic.Int32

	mu         sync.Mutex
	violations []error
}

func newAccessGuard() *accessGuard {
	return &accessGuard{}
}

func (g *accessGuard) record(err AccessViolationError) error {
	g.mu.Lock()
	g.violations = append(g.violations, err)
	g.mu.Unlock()
	return err
}

func (g *accessGuard) acquire(reads, writes []Component, readBits, writeBits []uint32) error {
	// All counters go up before any check; release undoes exactly this.
	g.active.Add(1)
	for _, bit := range writeBits {
		g.writers[bit].Add(1)
	}
	for _, bit := range readBits {
		g.readers[bit].Add(1)
	}
	for i, bit := range writeBits {
		if g.writers[bit].Load() > 1 {
			return g.record(AccessViolationError{Component: writes[i], Reason: "concurrent writers"})
		}
		if g.readers[bit].Load() > int32(countBit(readBits, bit)) {
			return g.record(AccessViolationError{Component: writes[i], Reason: "write while another system reads"})
		}
	}
	for i, bit := range readBits {
		if g.writers[bit].Load() > 0 && !containsBit(writeBits, bit) {
			return g.record(AccessViolationError{Component: reads[i], Reason: "read while another system writes"})
		}
	}
	return nil
}

func (g *accessGuard) release(readBits, writeBits []uint32) {
	for _, bit := range writeBits {
		g.writers[bit].Add(-1)
	}
	for _, bit := range readBits {
		g.readers[bit].Add(-1)
	}
	g.active.Add(-1)
}

// touch checks a column access made while systems are running. Accesses
// outside a frame are not tracked.
func (g *accessGuard) touch(c Component, bit uint32, write bool) error {
	if g.active.Load() == 0 {
		return nil
	}
	if write && g.writers[bit].Load() == 0 {
		return g.record(AccessViolationError{Component: c, Reason: "write without a declared writer"})
	}
	if !write && g.writers[bit].Load() == 0 && g.readers[bit].Load() == 0 {
		return g.record(AccessViolationError{Component: c, Reason: "read without a declared reader"})
	}
	return nil
}

func (g *accessGuard) drain() []error {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.violations
	g.violations = nil
	return out
}

func containsBit(bits []uint32, bit uint32) bool {
	return countBit(bits, bit) > 0
}

func countBit(bits []uint32, bit uint32) int {
	n := 0
	for _, b := range bits {
		if b == bit {
			n++
		}
	}
	return n
}

// BeginAccess registers a running system's declared component reads and
// writes with the debug access guard. It is a no-op unless the World was
// created with DebugAccessChecks. A successful BeginAccess must be paired
// with EndAccess using the same slices; a failed one holds nothing.
func (w *World) BeginAccess(reads, writes []Component) error {
	if w.guard == nil {
		return nil
	}
	readBits, err := w.bitsFor(reads)
	if err != nil {
		return err
	}
	writeBits, err := w.bitsFor(writes)
	if err != nil {
		return err
	}
	if err := w.guard.acquire(reads, writes, readBits, writeBits); err != nil {
		w.guard.release(readBits, writeBits)
		return err
	}
	return nil
}

// EndAccess releases what BeginAccess registered.
func (w *World) EndAccess(reads, writes []Component) {
	if w.guard == nil {
		return
	}
	readBits, _ := w.bitsFor(reads)
	writeBits, _ := w.bitsFor(writes)
	w.guard.release(readBits, writeBits)
}

// AccessViolations returns and clears the violations recorded since the
// last call.
func (w *World) AccessViolations() []error {
	if w.guard == nil {
		return nil
	}
	return w.guard.drain()
}

// DebugAccessChecks reports whether the World tracks column accesses.
func (w *World) DebugAccessChecks() bool {
	return w.guard != nil
}

func (w *World) bitsFor(components []Component) ([]uint32, error) {
	bits := make([]uint32, len(components))
	for i, c := range components {
		bit, err := w.registry.bitFor(c)
		if err != nil {
			return nil, err
		}
		bits[i] = bit
	}
	return bits, nil
}
