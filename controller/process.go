package controller

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"traceback/unwind"
)

// Symbol is one resolved meaning of an address. A physical frame
// resolves to one Symbol, or to several when inlining put more than one
// logical call at the same PC (innermost first). Any field other than
// Module may be missing; stripped binaries degrade to module+offset.
type Symbol struct {
	Name    string // as found in the tables, possibly mangled
	Module  string // backing file path
	File    string
	Line    int
	Offset  uint64 // address - symbol start, when the symbol is known
	Inlined bool
}

// Process is one resolution session over our own process: the module
// list and the per-module parsed objects live here and are rebuilt only
// when asked. The lock covers cache mutation only; a resolve call never
// holds it end to end.
type Process struct {
	Pid      int
	ExecPath string

	mu       sync.Mutex
	maps     *ProcMaps
	images   []*ModuleImage
	objects  map[string]*elfObject
	upToDate bool
}

func CreateProcess() (*Process, error) {
	process := &Process{
		Pid:     os.Getpid(),
		objects: make(map[string]*elfObject),
	}
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("cannot locate own executable: %v", err)
	}
	process.ExecPath = execPath
	return process, nil
}

// Refresh marks the module list stale. The next resolve rebuilds it;
// parsed objects for files still mapped are kept.
func (p *Process) Refresh() {
	p.mu.Lock()
	p.upToDate = false
	p.mu.Unlock()
}

// Modules returns the current module image list, enumerating on first
// use. On platforms without /proc the list is empty and resolution
// falls back to the runtime's own tables for Go code.
func (p *Process) Modules() []*ModuleImage {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.upToDate {
		p.rebuildLocked()
	}
	return p.images
}

func (p *Process) rebuildLocked() {
	p.upToDate = true
	maps, err := GetProcMaps(p.Pid)
	if err != nil {
		p.maps = nil
		p.images = nil
		return
	}
	p.maps = maps
	p.images = nil
	for _, seg := range maps.Segments() {
		if !seg.Executable() || !seg.Backed() {
			continue
		}
		obj, ok := p.objects[seg.libPath]
		if !ok {
			obj = newELFObject(seg.libPath)
			p.objects[seg.libPath] = obj
		}
		p.images = append(p.images, &ModuleImage{
			Name:    seg.libName,
			Path:    seg.libPath,
			Base:    seg.baseAddr,
			End:     seg.endAddr,
			FileOff: seg.off,
			obj:     obj,
		})
	}
}

// ParseAddress locates the module image containing addr.
func (p *Process) ParseAddress(addr uint64) (*Address, error) {
	for _, image := range p.Modules() {
		if image.Contains(addr) {
			return &Address{Image: image, Offset: addr - image.Base}, nil
		}
	}
	return nil, ErrUnknownAddress
}

// ResolveAddress maps one return address to its symbols, innermost
// inline frame first. An address outside every module yields an empty
// slice. Go functions resolve through the runtime's own tables, which
// carry inline information and do their own return-address adjustment;
// everything else goes through the module's ELF symbol index and DWARF
// data, one instruction back so the call attributes to the calling
// line.
func (p *Process) ResolveAddress(addr uint64) []Symbol {
	if syms := p.resolveRuntime(addr); len(syms) > 0 {
		return syms
	}
	return p.resolveModule(unwind.CallAdjust(addr))
}

func (p *Process) resolveRuntime(addr uint64) []Symbol {
	pc := uintptr(addr)
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return nil
	}
	var syms []Symbol
	frames := runtime.CallersFrames([]uintptr{pc})
	for {
		frame, more := frames.Next()
		if frame.Function != "" || frame.File != "" {
			sym := Symbol{
				Name:    frame.Function,
				Module:  p.ExecPath,
				File:    frame.File,
				Line:    frame.Line,
				Inlined: more,
			}
			if frame.Func != nil {
				sym.Offset = addr - uint64(frame.Func.Entry())
			}
			syms = append(syms, sym)
		}
		if !more {
			break
		}
	}
	return syms
}

func (p *Process) resolveModule(addr uint64) []Symbol {
	parsed, err := p.ParseAddress(addr)
	if err != nil {
		return []Symbol{}
	}
	image := parsed.Image
	if err := image.obj.ensure(); err != nil {
		return []Symbol{}
	}
	vaddr, err := image.VirtualAddr(addr)
	if err != nil {
		return []Symbol{}
	}

	physical := Symbol{Module: image.Path}
	if entry, ok := image.obj.findSymbol(vaddr); ok {
		physical.Name = entry.Name
		physical.Offset = vaddr - entry.Addr
	} else {
		physical.Offset = parsed.Offset
	}

	chain := image.obj.inlineChain(vaddr)
	if len(chain) <= 1 {
		if file, line, ok := image.obj.lineFor(vaddr); ok {
			physical.File = file
			physical.Line = line
		}
		if len(chain) == 1 && physical.Name == "" {
			physical.Name = chain[0].name
		}
		return []Symbol{physical}
	}

	// chain is subprogram first, innermost inline last; emit innermost
	// first. The innermost frame gets the line-table row, each caller
	// gets the callee's call site.
	syms := make([]Symbol, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		sym := Symbol{
			Name:    chain[i].name,
			Module:  image.Path,
			Inlined: i > 0,
		}
		if i == len(chain)-1 {
			if file, line, ok := image.obj.lineFor(vaddr); ok {
				sym.File = file
				sym.Line = line
			}
		} else {
			sym.File = chain[i+1].callFile
			sym.Line = chain[i+1].callLine
		}
		if i == 0 {
			// physical frame keeps the symbol-table name and offset
			if physical.Name != "" {
				sym.Name = physical.Name
			}
			sym.Offset = physical.Offset
		}
		syms = append(syms, sym)
	}
	return syms
}
