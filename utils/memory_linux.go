package utils

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ReadProcessMemory copies len(buffer) bytes from remoteAddr in the
// given process without touching the address from our own page tables.
// A bad address comes back as an error instead of a fault, which is what
// the frame-pointer walker needs when it chases a corrupted chain.
func ReadProcessMemory(pid uint32, remoteAddr uintptr, buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}
	localIov := []unix.Iovec{
		{Base: &buffer[0], Len: uint64(len(buffer))},
	}
	remoteIov := []unix.RemoteIovec{
		{Base: remoteAddr, Len: int(len(buffer))},
	}

	n, err := unix.ProcessVMReadv(
		int(pid),
		localIov,
		remoteIov,
		0, // flags
	)
	if err != nil {
		return 0, fmt.Errorf("ReadMemory failed: %v", err)
	}
	return n, nil
}

// ReadSelfMemory probes our own address space fault-free.
func ReadSelfMemory(addr uintptr, buffer []byte) (int, error) {
	return ReadProcessMemory(uint32(unix.Getpid()), addr, buffer)
}
