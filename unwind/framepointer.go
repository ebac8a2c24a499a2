//go:build linux && (amd64 || arm64)

package unwind

import (
	"encoding/binary"

	"traceback/config"
	"traceback/utils"
)

// framePointerBackend chases the saved frame-pointer chain. The Go
// compiler keeps frame pointers on amd64 and arm64, with the caller's
// frame pointer at [fp] and the return address at [fp+8]. Every load
// goes through a fault-free read so a corrupted chain ends the walk
// instead of the process.
type framePointerBackend struct{}

func newFramePointerBackend() (Backend, error) {
	return framePointerBackend{}, nil
}

func (framePointerBackend) Name() string { return "framepointer" }

//go:noinline
func (framePointerBackend) Cursor(skip int) (Cursor, error) {
	c := &fpCursor{fp: getfp()}
	for ; skip > 0; skip-- {
		if _, ok := c.Next(); !ok {
			break
		}
	}
	return c, nil
}

type fpCursor struct {
	fp   uintptr
	base uintptr // lowest fp seen, chain must grow away from it
	buf  [16]byte
}

func (c *fpCursor) Next() (Frame, bool) {
	fp := c.fp
	if fp == 0 || fp%8 != 0 {
		return Frame{}, false
	}
	if c.base == 0 {
		c.base = fp
	}
	if fp < c.base || fp-c.base > config.MaxStackScan {
		return Frame{}, false
	}
	n, err := utils.ReadSelfMemory(fp, c.buf[:])
	if err != nil || n < 16 {
		return Frame{}, false
	}
	nextfp := uintptr(binary.LittleEndian.Uint64(c.buf[0:8]))
	retaddr := binary.LittleEndian.Uint64(c.buf[8:16])
	if retaddr < 4096 {
		return Frame{}, false
	}
	if nextfp != 0 && nextfp <= fp {
		// the chain must strictly move toward the stack base
		nextfp = 0
	}
	c.fp = nextfp
	return Frame{PC: retaddr, SP: uint64(fp)}, true
}

// getfp returns the caller's frame pointer register. Implemented in
// assembly per architecture.
func getfp() uintptr
