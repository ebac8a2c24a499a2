//go:build arm64

package unwind

// retAdjust is subtracted from a return address before line lookup.
// ARM64 instructions are 4 bytes, so this lands on the BL itself.
const retAdjust = 4
