package backtrace

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

//go:noinline
func chainA(t *testing.T, f func() (*Backtrace, error)) (*Backtrace, error) {
	return chainB(t, f)
}

//go:noinline
func chainB(t *testing.T, f func() (*Backtrace, error)) (*Backtrace, error) {
	return chainC(t, f)
}

//go:noinline
func chainC(t *testing.T, f func() (*Backtrace, error)) (*Backtrace, error) {
	return f()
}

func frameNames(t *testing.T, bt *Backtrace) []string {
	t.Helper()
	session, err := NewSession()
	assert.NilError(t, err)
	var names []string
	for _, rf := range bt.ResolveAll(session) {
		name := ""
		if len(rf.Symbols) > 0 {
			name = rf.Symbols[0].Name
		}
		names = append(names, name)
	}
	return names
}

func TestCaptureOrdering(t *testing.T) {
	bt, err := chainA(t, Capture)
	assert.NilError(t, err)
	assert.Assert(t, bt.Depth() >= 3, "want at least the three chain frames, got %d", bt.Depth())

	names := frameNames(t, bt)
	var got []string
	for _, name := range names {
		if strings.Contains(name, ".chain") {
			got = append(got, name[strings.LastIndex(name, ".")+1:])
		}
	}
	assert.DeepEqual(t, []string{"chainC", "chainB", "chainA"}, got)
}

func TestInnermostFrameIsCaller(t *testing.T) {
	bt, err := chainC(t, Capture)
	assert.NilError(t, err)
	names := frameNames(t, bt)
	assert.Assert(t, len(names) > 0)
	assert.Assert(t, strings.Contains(names[0], "chainC"),
		"innermost frame resolved to %q", names[0])
}

//go:noinline
func recurse(depth int, out *[]*Backtrace) error {
	if depth == 0 {
		bt, err := Capture()
		if err != nil {
			return err
		}
		*out = append(*out, bt)
		return nil
	}
	return recurse(depth-1, out)
}

func TestNestedDepth(t *testing.T) {
	const depth = 20
	var captures []*Backtrace
	assert.NilError(t, recurse(depth, &captures))
	assert.Assert(t, captures[0].Depth() >= depth,
		"capture from %d nested calls has only %d frames", depth, captures[0].Depth())
}

func TestSmallMaxDepthTruncates(t *testing.T) {
	bt, err := chainA(t, func() (*Backtrace, error) {
		return CaptureWith(Options{MaxDepth: 2})
	})
	assert.NilError(t, err)
	assert.Equal(t, 2, bt.Depth())
}

func TestResolveDeterministic(t *testing.T) {
	bt, err := Capture()
	assert.NilError(t, err)
	session, err := NewSession()
	assert.NilError(t, err)
	pc := bt.Frames()[0].PC
	assert.DeepEqual(t, session.Resolve(pc), session.Resolve(pc))
}

func TestUnknownAddressResolvesEmpty(t *testing.T) {
	session, err := NewSession()
	assert.NilError(t, err)
	assert.Equal(t, 0, len(session.Resolve(0x1)))
}

func TestFramesIsACopy(t *testing.T) {
	bt, err := Capture()
	assert.NilError(t, err)
	frames := bt.Frames()
	assert.Assert(t, len(frames) > 0)
	original := frames[0].PC
	frames[0].PC = 0xdead
	assert.Equal(t, original, bt.Frames()[0].PC)
}

func TestFormatNumbersFromZero(t *testing.T) {
	bt, err := Capture()
	assert.NilError(t, err)
	session, err := NewSession()
	assert.NilError(t, err)
	var b strings.Builder
	bt.Format(&b, session)
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	assert.Assert(t, len(lines) > 0)
	assert.Assert(t, strings.HasPrefix(lines[0], "#0 "), "first line %q", lines[0])
}
