package controller

import (
	"errors"
	"fmt"

	"traceback/utils"
)

// ErrUnknownAddress means the address is not inside any known module
// image (JIT pages, anonymous mappings, unmapped garbage). Callers
// degrade to an empty symbol list, they do not fail.
var ErrUnknownAddress = errors.New("address not within any known module")

// ModuleImage is one executable mapping of a backing file: the runtime
// address range, the file offset behind it, and a handle to the parsed
// binary shared between all mappings of the same file.
type ModuleImage struct {
	Name    string
	Path    string
	Base    uint64
	End     uint64
	FileOff uint64

	obj *elfObject
}

func (m *ModuleImage) Contains(addr uint64) bool {
	return m.Base <= addr && addr < m.End
}

// VirtualAddr translates a runtime address inside this mapping to the
// link-time virtual address that the file's symbol and line tables use:
// runtime address -> file offset -> vaddr via the program headers.
func (m *ModuleImage) VirtualAddr(addr uint64) (uint64, error) {
	if !m.Contains(addr) {
		return 0, fmt.Errorf("address 0x%x outside %s", addr, m.Name)
	}
	if err := m.obj.ensure(); err != nil {
		return 0, err
	}
	fileOff := addr - m.Base + m.FileOff
	return utils.ConvertFileOffsetToVirtualOffset(m.obj.file, fileOff)
}

// Address is a module-relative view of one runtime address.
type Address struct {
	Image  *ModuleImage
	Offset uint64 // offset from the mapping base
}
