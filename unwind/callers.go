package unwind

import "runtime"

// runtimeBackend asks the runtime's own virtual unwinder for the PC
// chain. This is the CFI-equivalent path: it works with or without
// frame pointers and across signal and preemption boundaries.
type runtimeBackend struct{}

func (runtimeBackend) Name() string { return "runtime" }

//go:noinline
func (runtimeBackend) Cursor(skip int) (Cursor, error) {
	// Grow until the whole chain fits. runtime.Callers reports how many
	// entries it wrote, but not how many it would have needed.
	pcv := make([]uintptr, 64)
	for {
		n := runtime.Callers(skip+2, pcv)
		if n < len(pcv) {
			pcv = pcv[:n]
			break
		}
		pcv = make([]uintptr, 2*len(pcv))
	}
	return &callersCursor{pcs: pcv}, nil
}

type callersCursor struct {
	pcs []uintptr
	pos int
}

func (c *callersCursor) Next() (Frame, bool) {
	if c.pos >= len(c.pcs) {
		return Frame{}, false
	}
	pc := c.pcs[c.pos]
	c.pos++
	if pc == 0 {
		return Frame{}, false
	}
	return Frame{PC: uint64(pc)}, true
}
