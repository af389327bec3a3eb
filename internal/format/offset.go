package format

import (
	"strings"
	"unicode/utf8"
)

// EndOfLine passed as the column selects the position just before the
// line's terminating newline.
const EndOfLine = -1

// ByteOffset returns the UTF-8 byte offset of the zero-based (line, col)
// character position in text. Multi-byte runes count their encoded
// length, so the offset is suitable for stylua's --range flags. Columns
// past the end of a line clamp to the end of that line.
func ByteOffset(text string, line, col int) int {
	off := 0
	rest := text
	for ; line > 0; line-- {
		i := strings.IndexByte(rest, '\n')
		if i < 0 {
			return off + len(rest)
		}
		off += i + 1
		rest = rest[i+1:]
	}
	for _, r := range rest {
		if col == 0 || r == '\n' {
			break
		}
		off += utf8.RuneLen(r)
		if col != EndOfLine {
			col--
		}
	}
	return off
}
