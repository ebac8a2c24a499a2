package utils

import (
	"debug/elf"
	"fmt"
)

// ConvertVirtualOffsetToFileOffset maps a link-time virtual address to
// the file offset backing it, using the PT_LOAD program headers.
func ConvertVirtualOffsetToFileOffset(elfFile *elf.File, vaddr uint64) (uint64, error) {
	for _, prog := range elfFile.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if vaddr >= prog.Vaddr && vaddr < prog.Vaddr+prog.Memsz {
			offsetInSegment := vaddr - prog.Vaddr
			fileOffset := prog.Off + offsetInSegment
			return fileOffset, nil
		}
	}
	return 0, fmt.Errorf("virtual address 0x%x not found in any loadable segment", vaddr)
}

// ConvertFileOffsetToVirtualOffset is the inverse mapping. Runtime
// addresses taken from /proc/<pid>/maps translate to file offsets first,
// then through here to the vaddrs that symbol and line tables use.
func ConvertFileOffsetToVirtualOffset(elfFile *elf.File, fileOffset uint64) (uint64, error) {
	for _, prog := range elfFile.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if fileOffset >= prog.Off && fileOffset < prog.Off+prog.Filesz {
			offsetInSegment := fileOffset - prog.Off
			vaddr := prog.Vaddr + offsetInSegment
			return vaddr, nil
		}
	}
	return 0, fmt.Errorf("file offset 0x%x not found in any loadable segment", fileOffset)
}
