//go:build amd64

package utils

import (
	"golang.org/x/arch/x86/x86asm"
)

// DisASM decodes one instruction at the start of code and reports how
// many bytes it occupied.
func DisASM(code []byte) (string, int, error) {
	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		return "", 0, err
	}
	return x86asm.IntelSyntax(inst, 0, nil), inst.Len, nil
}
