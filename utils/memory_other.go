//go:build !linux

package utils

import "errors"

var errNoSafeRead = errors.New("no fault-free memory read on this platform")

func ReadProcessMemory(pid uint32, remoteAddr uintptr, buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}
	return 0, errNoSafeRead
}

func ReadSelfMemory(addr uintptr, buffer []byte) (int, error) {
	return 0, errNoSafeRead
}
