package node

import (
	"io"
	"strings"
)

const hexDumpWidth = 16

// NibbleHex returns the uppercase hex digit for the low four bits of v.
func NibbleHex(v uint32) byte {
	v &= 0xF
	if v < 10 {
		return '0' + byte(v)
	}
	return 'A' + byte(v-10)
}

// RenderHexDump writes buf to w sixteen bytes per line: hex bytes on the
// left, printable ASCII on the right with everything else shown as '.'.
func RenderHexDump(w io.Writer, buf []byte) error {
	for i := 0; i < len(buf); i += hexDumpWidth {
		end := min(i+hexDumpWidth, len(buf))
		if _, err := io.WriteString(w, hexDumpLine(buf[i:end])); err != nil {
			return err
		}
	}
	return nil
}

func hexDumpLine(chunk []byte) string {
	var b strings.Builder
	b.Grow(hexDumpWidth*4 + 4)

	for i, c := range chunk {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(NibbleHex(uint32(c) >> 4))
		b.WriteByte(NibbleHex(uint32(c)))
	}
	// Pad short lines so the character column lines up.
	for i := len(chunk); i < hexDumpWidth; i++ {
		b.WriteString("   ")
	}

	b.WriteString("    ")
	for _, c := range chunk {
		if c < 0x20 || c > 0x7E {
			c = '.'
		}
		b.WriteByte(c)
	}
	b.WriteByte('\n')

	return b.String()
}
