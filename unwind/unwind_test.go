package unwind

import (
	"errors"
	"runtime"
	"testing"

	"gotest.tools/v3/assert"

	"traceback/config"
)

func TestCaptureRuntime(t *testing.T) {
	frames, backend, err := Capture(0, 0, config.BACKEND_RUNTIME)
	assert.NilError(t, err)
	assert.Equal(t, "runtime", backend)
	assert.Assert(t, len(frames) > 0)
	assert.Assert(t, frames[0].PC != 0)
}

func TestCaptureTruncates(t *testing.T) {
	frames, _, err := Capture(0, 3, config.BACKEND_RUNTIME)
	assert.NilError(t, err)
	assert.Assert(t, len(frames) <= 3)
}

//go:noinline
func nest(depth int, out *[]Frame) {
	if depth == 0 {
		frames, _, _ := Capture(0, 0, config.BACKEND_RUNTIME)
		*out = frames
		return
	}
	nest(depth-1, out)
}

func TestCaptureNestedDepth(t *testing.T) {
	const depth = 16
	var frames []Frame
	nest(depth, &frames)
	assert.Assert(t, len(frames) >= depth,
		"%d nested calls produced %d frames", depth, len(frames))
}

func TestFramePointerBackend(t *testing.T) {
	fpSupported := runtime.GOOS == "linux" &&
		(runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64")
	backend, err := Select(config.BACKEND_FP)
	if !fpSupported {
		assert.Assert(t, errors.Is(err, ErrUnsupportedPlatform))
		return
	}
	assert.NilError(t, err)
	assert.Equal(t, "framepointer", backend.Name())

	frames, name, err := Capture(0, 0, config.BACKEND_FP)
	assert.NilError(t, err)
	assert.Equal(t, "framepointer", name)
	assert.Assert(t, len(frames) >= 1)
	for _, frame := range frames {
		assert.Assert(t, frame.PC > 4096)
		assert.Assert(t, frame.SP != 0)
	}
}

func TestCallAdjust(t *testing.T) {
	assert.Equal(t, uint64(0), CallAdjust(0))
	assert.Assert(t, CallAdjust(0x1000) < 0x1000)
}
