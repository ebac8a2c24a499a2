//go:build arm64

package utils

import (
	"golang.org/x/arch/arm64/arm64asm"
)

// DisASM decodes one instruction at the start of code. ARM64
// instructions are fixed-width.
func DisASM(code []byte) (string, int, error) {
	inst, err := arm64asm.Decode(code)
	if err != nil {
		return "", 0, err
	}
	return inst.String(), 4, nil
}
