// Package unwind walks the calling thread's own stack. Backends share
// one cursor contract modeled on a libunwind cursor: the initial frame
// comes out before the first step, then each step moves to the caller
// until the mechanism reports no more frames. A failed step ends the
// walk; the frames already collected are a valid partial result.
package unwind

import (
	"errors"

	"traceback/config"
)

// Frame is one captured call-stack entry. PC is a return address; SP is
// the frame base when the backend knows it, else zero.
type Frame struct {
	PC uint64
	SP uint64
}

// Cursor steps outward through caller frames. ok is false once there is
// nothing more to yield, whether the walk finished or a step failed.
type Cursor interface {
	Next() (frame Frame, ok bool)
}

// Backend produces cursors positioned skip frames above the caller of
// Cursor (skip 0 starts at that caller).
type Backend interface {
	Name() string
	Cursor(skip int) (Cursor, error)
}

// ErrUnsupportedPlatform is the only hard failure: no backend can run
// on this architecture/OS combination.
var ErrUnsupportedPlatform = errors.New("unwind: no usable backend on this platform")

// Select picks a backend for the given preference.
func Select(pref int) (Backend, error) {
	switch pref {
	case config.BACKEND_FP:
		return newFramePointerBackend()
	case config.BACKEND_RUNTIME, config.BACKEND_AUTO:
		return runtimeBackend{}, nil
	}
	return runtimeBackend{}, nil
}

// Capture collects up to maxDepth frames starting skip frames above the
// caller of Capture. Hitting maxDepth truncates, it does not fail.
//
//go:noinline
func Capture(skip, maxDepth, pref int) ([]Frame, string, error) {
	if maxDepth <= 0 {
		maxDepth = config.DefaultMaxDepth
	}
	backend, err := Select(pref)
	if err != nil {
		return nil, "", err
	}
	cursor, err := backend.Cursor(skip + 1)
	if err != nil {
		return nil, "", err
	}
	frames := make([]Frame, 0, 32)
	for len(frames) < maxDepth {
		frame, ok := cursor.Next()
		if !ok {
			break
		}
		frames = append(frames, frame)
	}
	return frames, backend.Name(), nil
}
