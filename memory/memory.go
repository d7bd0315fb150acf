// Package memory provides the fixed-capacity byte store used for both
// program memory and the register bank.
//
// A Memory carries two independent cursors. Reads advance the read
// cursor and writes advance the write cursor; repositioning a cursor is
// never checked, but every access past the end of the buffer fails with
// ErrOutOfBounds. Words are 16 bits, big-endian.
package memory

import (
	"encoding/binary"
	"slices"
)

const WORD_SIZE = 2 // Bytes in a word.

// Memory is a zero-filled byte buffer with a read and a write cursor.
type Memory struct {
	ReadIndex  int // Offset of the next read.
	WriteIndex int // Offset of the next write.

	data []byte
}

// New allocates a zero-filled memory of size bytes.
func New(size int) (mem *Memory) {
	mem = &Memory{
		data: make([]byte, size),
	}

	return
}

// Len returns the capacity in bytes.
func (mem *Memory) Len() int {
	return len(mem.data)
}

// Bytes returns a copy of the memory contents.
func (mem *Memory) Bytes() []byte {
	return slices.Clone(mem.data)
}

// Clear zero-fills the memory and rewinds both cursors.
func (mem *Memory) Clear() {
	clear(mem.data)
	mem.ReadIndex = 0
	mem.WriteIndex = 0
}

// SetReadCursor positions the read cursor.
func (mem *Memory) SetReadCursor(offset int) {
	mem.ReadIndex = offset
}

// SetWriteCursor positions the write cursor.
func (mem *Memory) SetWriteCursor(offset int) {
	mem.WriteIndex = offset
}

// check verifies that width bytes are available at offset.
func (mem *Memory) check(offset int, width int) (err error) {
	if offset < 0 || offset > len(mem.data)-width {
		err = &ErrAccess{Offset: offset, Width: width, Err: ErrOutOfBounds}
	}
	return
}

// ReadByte reads the byte at the read cursor.
func (mem *Memory) ReadByte() (value byte, err error) {
	err = mem.check(mem.ReadIndex, 1)
	if err != nil {
		return
	}

	value = mem.data[mem.ReadIndex]
	mem.ReadIndex++
	return
}

// ReadWord reads the word at the read cursor.
func (mem *Memory) ReadWord() (value uint16, err error) {
	err = mem.check(mem.ReadIndex, WORD_SIZE)
	if err != nil {
		return
	}

	value = binary.BigEndian.Uint16(mem.data[mem.ReadIndex:])
	mem.ReadIndex += WORD_SIZE
	return
}

// WriteByte writes the byte at the write cursor.
func (mem *Memory) WriteByte(value byte) (err error) {
	err = mem.check(mem.WriteIndex, 1)
	if err != nil {
		return
	}

	mem.data[mem.WriteIndex] = value
	mem.WriteIndex++
	return
}

// WriteWord writes the word at the write cursor.
func (mem *Memory) WriteWord(value uint16) (err error) {
	err = mem.check(mem.WriteIndex, WORD_SIZE)
	if err != nil {
		return
	}

	binary.BigEndian.PutUint16(mem.data[mem.WriteIndex:], value)
	mem.WriteIndex += WORD_SIZE
	return
}

// Load installs a program image at offset 0.
// An image larger than the memory is rejected before any byte is written.
func (mem *Memory) Load(image []byte) (err error) {
	err = mem.check(0, len(image))
	if err != nil {
		return
	}

	copy(mem.data, image)
	mem.WriteIndex = len(image)
	return
}

// Snapshot is a saved copy of a Memory, contents and cursors.
type Snapshot struct {
	ReadIndex  int
	WriteIndex int
	Data       []byte
}

// Snapshot saves the memory state.
func (mem *Memory) Snapshot() Snapshot {
	return Snapshot{
		ReadIndex:  mem.ReadIndex,
		WriteIndex: mem.WriteIndex,
		Data:       slices.Clone(mem.data),
	}
}

// Restore returns the memory to a saved state.
// Snapshots of a different capacity are rejected.
func (mem *Memory) Restore(snap Snapshot) (err error) {
	if len(snap.Data) != len(mem.data) {
		err = &ErrAccess{Offset: 0, Width: len(snap.Data), Err: ErrSnapshotSize}
		return
	}

	copy(mem.data, snap.Data)
	mem.ReadIndex = snap.ReadIndex
	mem.WriteIndex = snap.WriteIndex
	return
}
