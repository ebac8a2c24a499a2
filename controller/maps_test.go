package controller

import (
	"testing"

	"gotest.tools/v3/assert"
)

const sampleMaps = `00400000-00452000 r-xp 00000000 08:02 173521 /usr/bin/sample
00651000-00652000 rw-p 00051000 08:02 173521 /usr/bin/sample
7f3a8c000000-7f3a8c1c0000 r-xp 00000000 08:02 400764 /usr/lib/libc.so
7f3a8c1c0000-7f3a8c3c0000 ---p 001c0000 08:02 400764 /usr/lib/libc.so
7f3a8d000000-7f3a8d020000 r-xp 00000000 08:02 400800 /opt/vendor/libcrypto.so
7ffd12345000-7ffd12366000 rw-p 00000000 00:00 0 [stack]
7ffd123fe000-7ffd12400000 r-xp 00000000 00:00 0 [vdso]
`

func TestParseMapsContent(t *testing.T) {
	m := &ProcMaps{pid: 1}
	assert.NilError(t, m.ParseMapsContent([]byte(sampleMaps)))
	segs := m.Segments()
	assert.Equal(t, 7, len(segs))

	first := segs[0]
	assert.Equal(t, uint64(0x400000), first.baseAddr)
	assert.Equal(t, uint64(0x452000), first.endAddr)
	assert.Equal(t, uint64(0), first.off)
	assert.Equal(t, "/usr/bin/sample", first.libPath)
	assert.Equal(t, "sample", first.libName)
	assert.Assert(t, first.Executable())
	assert.Assert(t, first.Backed())

	assert.Assert(t, !segs[1].Executable())
	assert.Assert(t, !segs[3].Executable())

	vdso := segs[6]
	assert.Assert(t, vdso.Executable())
	assert.Assert(t, !vdso.Backed())
}

func TestGetLibSearchPathsDedupes(t *testing.T) {
	m := &ProcMaps{pid: 1}
	assert.NilError(t, m.ParseMapsContent([]byte(sampleMaps)))
	assert.DeepEqual(t, []string{"/usr/lib", "/opt/vendor"}, m.GetLibSearchPaths())
}

func TestParseMapsContentSkipsGarbage(t *testing.T) {
	m := &ProcMaps{pid: 1}
	assert.NilError(t, m.ParseMapsContent([]byte("not a maps line\n\n")))
	assert.Equal(t, 0, len(m.Segments()))
}
