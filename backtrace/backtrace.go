// Package backtrace is the public face of the library: capture the
// calling goroutine's stack now, resolve it later. Capture is cheap and
// never symbolicates; resolution is caller-driven through a Session so
// hot and panic paths only pay for what they ask for.
package backtrace

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"traceback/controller"
	"traceback/demangler"
	"traceback/unwind"
)

// Frame is one captured call-stack entry.
type Frame = unwind.Frame

// Symbol is the resolved meaning of a Frame, with the demangled name
// filled in on top of what the resolver found.
type Symbol struct {
	Name      string // as found in the tables, possibly mangled
	Demangled string
	Module    string
	File      string
	Line      int
	Offset    uint64
	Inlined   bool
}

// ResolvedFrame pairs a Frame with its symbols, innermost inline call
// first. The slice is empty when the address belongs to no module.
type ResolvedFrame struct {
	Frame   Frame
	Symbols []Symbol
}

// Backtrace is an ordered capture, innermost frame first. It is never
// mutated after capture; resolving it does not change it.
type Backtrace struct {
	frames  []Frame
	backend string
}

// Options tunes a capture. The zero value means: skip nothing beyond
// the library's own frames, default depth, automatic backend.
type Options struct {
	Skip     int
	MaxDepth int
	Backend  int
}

// Capture unwinds from the caller outward with default options. The
// only possible error is an unusable platform; a short walk is a valid
// partial result, not an error.
//
//go:noinline
func Capture() (*Backtrace, error) {
	return capture(Options{}, 2)
}

// CaptureWith is Capture with explicit options.
//
//go:noinline
func CaptureWith(opt Options) (*Backtrace, error) {
	return capture(opt, 2)
}

//go:noinline
func capture(opt Options, internal int) (*Backtrace, error) {
	frames, backend, err := unwind.Capture(opt.Skip+internal, opt.MaxDepth, opt.Backend)
	if err != nil {
		return nil, err
	}
	return &Backtrace{frames: frames, backend: backend}, nil
}

// Frames returns the captured frames in call order, unresolved. The
// copy keeps the Backtrace immutable no matter what callers do.
func (bt *Backtrace) Frames() []Frame {
	out := make([]Frame, len(bt.frames))
	copy(out, bt.frames)
	return out
}

// Backend names the unwind mechanism that produced this capture.
func (bt *Backtrace) Backend() string { return bt.backend }

func (bt *Backtrace) Depth() int { return len(bt.frames) }

// Session scopes the module list and debug-info caches to one
// resolution pass. Resolving the same address twice inside a session
// gives identical answers; Refresh starts a new view of the loaded
// module set.
type Session struct {
	process *controller.Process
}

func NewSession() (*Session, error) {
	process, err := controller.CreateProcess()
	if err != nil {
		return nil, err
	}
	return &Session{process: process}, nil
}

// Process exposes the underlying module/resolver state for callers
// that want module enumeration or raw address parsing.
func (s *Session) Process() *controller.Process { return s.process }

// Refresh tells the session the loaded-library set may have changed.
func (s *Session) Refresh() { s.process.Refresh() }

// Resolve maps one PC to its symbols, innermost inline frame first.
// The PC is treated as a return address: lookup attributes the call to
// the calling line, not the line after it.
func (s *Session) Resolve(pc uint64) []Symbol {
	raw := s.process.ResolveAddress(pc)
	syms := make([]Symbol, 0, len(raw))
	for _, r := range raw {
		syms = append(syms, Symbol{
			Name:      r.Name,
			Demangled: demangler.Demangle(r.Name),
			Module:    r.Module,
			File:      r.File,
			Line:      r.Line,
			Offset:    r.Offset,
			Inlined:   r.Inlined,
		})
	}
	return syms
}

// ResolveAll resolves every frame in order. Frames that resolve to
// nothing stay in the result with an empty symbol list; resolution
// never drops or invents frames.
func (bt *Backtrace) ResolveAll(s *Session) []ResolvedFrame {
	resolved := make([]ResolvedFrame, 0, len(bt.frames))
	for _, frame := range bt.frames {
		resolved = append(resolved, ResolvedFrame{
			Frame:   frame,
			Symbols: s.Resolve(frame.PC),
		})
	}
	return resolved
}

// Format renders the resolved trace, one line per (frame, symbol) pair,
// numbered from 0 at the innermost frame. Inline expansions share their
// physical frame's number.
func (bt *Backtrace) Format(w io.Writer, s *Session) {
	for i, rf := range bt.ResolveAll(s) {
		if len(rf.Symbols) == 0 {
			fmt.Fprintf(w, "#%-3d 0x%016x ???\n", i, rf.Frame.PC)
			continue
		}
		for _, sym := range rf.Symbols {
			fmt.Fprintf(w, "#%-3d 0x%016x %s\n", i, rf.Frame.PC, formatSymbol(sym))
		}
	}
}

// String resolves with a fresh session and renders the trace.
func (bt *Backtrace) String() string {
	var b strings.Builder
	s, err := NewSession()
	if err != nil {
		for i, frame := range bt.frames {
			fmt.Fprintf(&b, "#%-3d 0x%016x ???\n", i, frame.PC)
		}
		return b.String()
	}
	bt.Format(&b, s)
	return b.String()
}

func formatSymbol(sym Symbol) string {
	name := sym.Demangled
	if name == "" {
		name = sym.Name
	}
	var b strings.Builder
	if name == "" {
		fmt.Fprintf(&b, "%s+0x%x", filepath.Base(sym.Module), sym.Offset)
	} else {
		b.WriteString(name)
		if sym.Offset != 0 && !sym.Inlined {
			fmt.Fprintf(&b, "+0x%x", sym.Offset)
		}
	}
	if sym.Inlined {
		b.WriteString(" (inlined)")
	}
	if sym.File != "" {
		fmt.Fprintf(&b, " (%s:%d)", sym.File, sym.Line)
	}
	if sym.Module != "" && name != "" {
		fmt.Fprintf(&b, " %s", filepath.Base(sym.Module))
	}
	return b.String()
}
