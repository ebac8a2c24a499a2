package controller

import (
	"debug/dwarf"
	"debug/elf"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/exp/slices"
)

type symEntry struct {
	Addr uint64
	Size uint64
	Name string
}

// elfObject is the parsed view of one backing file, shared between all
// of its mappings. Parsing and index building happen at most once; a
// file that fails to open or parse is remembered as failed and skipped
// from then on, never retried in a loop.
type elfObject struct {
	path string

	mu      sync.Mutex
	loaded  bool
	loadErr error
	file    *elf.File
	syms    []symEntry
	dw      *dwarf.Data
}

func newELFObject(path string) *elfObject {
	return &elfObject{path: path}
}

func (o *elfObject) ensure() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.loaded {
		return o.loadErr
	}
	o.loaded = true
	f, err := elf.Open(o.path)
	if err != nil {
		o.loadErr = err
		slog.Debug("skipping unreadable module", "path", o.path, "error", err)
		return err
	}
	o.file = f
	o.buildSymbolIndex()
	if dw, err := f.DWARF(); err == nil {
		o.dw = dw
	} else {
		slog.Debug("module has no usable DWARF", "path", o.path, "error", err)
	}
	return nil
}

// buildSymbolIndex merges .symtab and .dynsym into one slice of defined
// function symbols sorted by address. Either table may be absent
// (stripped binaries); an empty index just means name-less symbols.
func (o *elfObject) buildSymbolIndex() {
	add := func(syms []elf.Symbol, err error) {
		if err != nil {
			return
		}
		for _, sym := range syms {
			if elf.ST_TYPE(sym.Info) != elf.STT_FUNC {
				continue
			}
			if sym.Value == 0 || sym.Section == elf.SHN_UNDEF {
				continue
			}
			o.syms = append(o.syms, symEntry{Addr: sym.Value, Size: sym.Size, Name: sym.Name})
		}
	}
	add(o.file.Symbols())
	add(o.file.DynamicSymbols())
	o.sortIndex()
}

func (o *elfObject) sortIndex() {
	slices.SortFunc(o.syms, func(a, b symEntry) bool {
		if a.Addr != b.Addr {
			return a.Addr < b.Addr
		}
		// findSymbol picks the last entry of an equal-address group, so
		// sized entries sort after their zero-sized dynsym twins
		return a.Size < b.Size
	})
}

// findSymbol returns the tightest entry enclosing vaddr. Zero-sized
// symbols cover up to the next symbol's start.
func (o *elfObject) findSymbol(vaddr uint64) (symEntry, bool) {
	if len(o.syms) == 0 {
		return symEntry{}, false
	}
	idx := sort.Search(len(o.syms), func(i int) bool {
		return o.syms[i].Addr > vaddr
	})
	if idx == 0 {
		return symEntry{}, false
	}
	entry := o.syms[idx-1]
	if entry.Size != 0 && vaddr >= entry.Addr+entry.Size {
		return symEntry{}, false
	}
	return entry, true
}
