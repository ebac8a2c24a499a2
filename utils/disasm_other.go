//go:build !amd64 && !arm64

package utils

import "errors"

func DisASM(code []byte) (string, int, error) {
	return "", 0, errors.New("disassembly not supported on this architecture")
}
