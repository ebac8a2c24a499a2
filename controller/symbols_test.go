package controller

import (
	"testing"

	"gotest.tools/v3/assert"
)

func indexedObject(syms ...symEntry) *elfObject {
	o := &elfObject{syms: syms}
	o.sortIndex()
	return o
}

func TestFindSymbolPrefersSizedDuplicate(t *testing.T) {
	// the same function often appears in both .dynsym (zero-sized) and
	// .symtab (sized); the lookup must land on the sized entry
	o := indexedObject(
		symEntry{Addr: 0x100, Size: 0x20, Name: "dup_sized"},
		symEntry{Addr: 0x100, Size: 0, Name: "dup"},
		symEntry{Addr: 0x200, Size: 0x10, Name: "other"},
	)

	entry, ok := o.findSymbol(0x110)
	assert.Assert(t, ok)
	assert.Equal(t, "dup_sized", entry.Name)

	entry, ok = o.findSymbol(0x100)
	assert.Assert(t, ok)
	assert.Equal(t, "dup_sized", entry.Name)
}

func TestFindSymbolEnclosing(t *testing.T) {
	o := indexedObject(
		symEntry{Addr: 0x100, Size: 0x20, Name: "first"},
		symEntry{Addr: 0x200, Size: 0x10, Name: "second"},
		symEntry{Addr: 0x300, Size: 0, Name: "unsized"},
	)

	_, ok := o.findSymbol(0x50)
	assert.Assert(t, !ok)

	entry, ok := o.findSymbol(0x11f)
	assert.Assert(t, ok)
	assert.Equal(t, "first", entry.Name)

	// gap between first's end and second's start
	_, ok = o.findSymbol(0x150)
	assert.Assert(t, !ok)

	// zero-sized symbols cover until the next entry
	entry, ok = o.findSymbol(0x350)
	assert.Assert(t, ok)
	assert.Equal(t, "unsized", entry.Name)
}

func TestFindSymbolEmptyIndex(t *testing.T) {
	o := &elfObject{}
	_, ok := o.findSymbol(0x100)
	assert.Assert(t, !ok)
}
