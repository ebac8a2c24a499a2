package unwind

// CallAdjust maps a captured return address to an address inside the
// call instruction, which is what symbol and line tables should see.
func CallAdjust(pc uint64) uint64 {
	if pc < retAdjust {
		return pc
	}
	return pc - retAdjust
}
