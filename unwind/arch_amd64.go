//go:build amd64

package unwind

// retAdjust is subtracted from a return address before line lookup so
// the entry attributes to the call instruction, not the one after it.
// x86 instructions are variable width; one byte lands inside the call.
const retAdjust = 1
