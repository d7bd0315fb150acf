package cpu

import (
	"iter"
	"slices"
)

// Line is one assembled source line and the bytes it produced.
type Line struct {
	LineNo    int      // Source line number.
	Ip        int      // Address of the first byte.
	Words     []string // Source words, after equate substitution.
	Bytes     []byte   // Assembled bytes.
	LinkLabel string   // Label whose address fills the literal operand.
}

// Program is an assembled listing.
type Program struct {
	Lines []Line
}

type Debug struct {
	*Line
	Index int // Offset of ip into Line.Bytes.
}

// Debug finds the line that produced the byte at ip.
func (prog *Program) Debug(ip uint16) (dbg Debug) {
	for n, line := range prog.Lines {
		if int(ip) >= line.Ip && int(ip) < line.Ip+len(line.Bytes) {
			dbg = Debug{
				Line:  &prog.Lines[n],
				Index: int(ip) - line.Ip,
			}
			break
		}
	}

	return
}

// Size returns the length of the binary image.
func (prog *Program) Size() (size int) {
	for _, line := range prog.Lines {
		end := line.Ip + len(line.Bytes)
		if end > size {
			size = end
		}
	}
	return
}

// Binary returns the memory image of the program, starting at address 0.
func (prog *Program) Binary() (bin []byte) {
	bin = make([]byte, prog.Size())
	for ip, data := range prog.Instructions() {
		copy(bin[ip:], data)
	}

	return
}

// Instructions iterates over the address and bytes of each line.
func (prog *Program) Instructions() iter.Seq2[uint16, []byte] {
	return func(yield func(ip uint16, data []byte) bool) {
		for _, line := range prog.Lines {
			if len(line.Bytes) == 0 {
				continue
			}
			if !yield(uint16(line.Ip), slices.Clone(line.Bytes)) {
				return
			}
		}
	}
}
