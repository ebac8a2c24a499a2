package utils

import (
	"fmt"
	"strings"
)

// HexDump renders data in the classic offset/hex/ascii layout used by
// the CLI `x` command.
func HexDump(address uint64, data []byte, n int) string {
	var builder strings.Builder
	if n > len(data) {
		n = len(data)
	}
	for i := 0; i < n; i += 16 {
		builder.WriteString(fmt.Sprintf("%08x  ", address+uint64(i)))

		hexPart := make([]string, 16)
		asciiPart := make([]rune, 16)
		for j := 0; j < 16; j++ {
			if i+j < n {
				hexPart[j] = fmt.Sprintf("%02x", data[i+j])
				if data[i+j] >= 32 && data[i+j] <= 126 {
					asciiPart[j] = rune(data[i+j])
				} else {
					asciiPart[j] = '.'
				}
			} else {
				hexPart[j] = "  "
				asciiPart[j] = ' '
			}
		}

		hexLine := strings.Join(hexPart[:8], "") + "  " + strings.Join(hexPart[8:], "")
		builder.WriteString(fmt.Sprintf("%-47s  |%s|", hexLine, string(asciiPart)))
		builder.WriteString("\n")
	}
	return builder.String()
}
