package utils

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestHexDump(t *testing.T) {
	data := []byte("Hello, world!\x00\x01\x02plus a second line")
	out := HexDump(0x1000, data, len(data))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, 3, len(lines))
	assert.Assert(t, strings.HasPrefix(lines[0], "00001000  "))
	assert.Assert(t, strings.HasPrefix(lines[1], "00001010  "))
	assert.Assert(t, strings.Contains(lines[0], "|Hello, world!..."))
	assert.Assert(t, strings.Contains(lines[0], "48656c6c"))
}

func TestHexDumpClampsLength(t *testing.T) {
	out := HexDump(0, []byte{0xab}, 100)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, 1, len(lines))
	assert.Assert(t, strings.Contains(lines[0], "ab"))
}
