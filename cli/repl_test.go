package cli

import (
	"testing"

	"gotest.tools/v3/assert"

	"traceback/backtrace"
	"traceback/config"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	session, err := backtrace.NewSession()
	assert.NilError(t, err)
	return CreateClient(session, nil)
}

func TestEvalAddressArithmetic(t *testing.T) {
	c := testClient(t)
	addr, err := c.evalAddress("0x10 + 16")
	assert.NilError(t, err)
	assert.Equal(t, uint64(32), addr)
}

func TestEvalAddressHexOnly(t *testing.T) {
	c := testClient(t)
	addr, err := c.evalAddress("0xdeadbeef")
	assert.NilError(t, err)
	assert.Equal(t, uint64(0xdeadbeef), addr)
}

func TestEvalAddressLast(t *testing.T) {
	c := testClient(t)
	c.lastAddr = 0x1000
	addr, err := c.evalAddress("last + 8")
	assert.NilError(t, err)
	assert.Equal(t, uint64(0x1008), addr)
}

func TestEvalAddressRejectsNonsense(t *testing.T) {
	c := testClient(t)
	_, err := c.evalAddress("not @ an ! expression")
	assert.Assert(t, err != nil)
}

func TestHexDumpRejectsNonPositiveLength(t *testing.T) {
	c := testClient(t)
	// must refuse the request instead of trying a zero or negative read
	c.cmdHexDump([]string{"0x1000", "0"})
	c.cmdHexDump([]string{"0x1000", "-8"})
}

func TestPaintHonorsDisableColor(t *testing.T) {
	config.DisableColor = false
	assert.Equal(t, config.RED+"boom"+config.NC, paint(config.RED, "boom"))
	config.DisableColor = true
	defer func() { config.DisableColor = false }()
	assert.Equal(t, "boom", paint(config.RED, "boom"))
}

func TestSanitizeIdent(t *testing.T) {
	assert.Equal(t, "libc_so_6", sanitizeIdent("libc.so.6"))
	assert.Equal(t, "ld_linux_x86_64_so_2", sanitizeIdent("ld-linux-x86-64.so.2"))
	assert.Equal(t, "sample", sanitizeIdent("sample"))
}
