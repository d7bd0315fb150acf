package cpu

import (
	"iter"

	"github.com/ezrec/vcpu/memory"
)

// Register is a slot index in the register bank.
type Register uint8

//go:generate go tool stringer -linecomment -type=Register
const (
	REG_IP  = Register(0) // ip
	REG_ACC = Register(1) // acc
	REG_R1  = Register(2) // r1
	REG_R2  = Register(3) // r2
	REG_R3  = Register(4) // r3
	REG_R4  = Register(5) // r4
	REG_R5  = Register(6) // r5
	REG_R6  = Register(7) // r6
	REG_R7  = Register(8) // r7
	REG_R8  = Register(9) // r8

	REGISTER_COUNT = 10 // Number of registers in the bank.
)

// Offset returns the byte offset of the register in the bank.
func (reg Register) Offset() int {
	return int(reg) * memory.WORD_SIZE
}

// Registers iterates over the registers in declaration order.
func Registers() iter.Seq[Register] {
	return func(yield func(reg Register) bool) {
		for n := range REGISTER_COUNT {
			if !yield(Register(n)) {
				return
			}
		}
	}
}

// LookupRegister returns the register with the given name.
func LookupRegister(name string) (reg Register, err error) {
	offset, ok := _register_offset[name]
	if !ok {
		err = ErrRegisterNotFound(name)
		return
	}

	reg = Register(offset / memory.WORD_SIZE)
	return
}

// _register_offset maps register names to their byte offset in the bank.
var _register_offset = func() map[string]int {
	offsets := make(map[string]int, REGISTER_COUNT)
	for reg := range Registers() {
		offsets[reg.String()] = reg.Offset()
	}
	return offsets
}()

// RegisterFile is the register bank: one word per register, stored in a
// dedicated memory and addressed either by name or by slot index.
type RegisterFile struct {
	bank *memory.Memory
}

// NewRegisterFile creates a zeroed register bank.
func NewRegisterFile() (rf *RegisterFile) {
	rf = &RegisterFile{
		bank: memory.New(REGISTER_COUNT * memory.WORD_SIZE),
	}

	return
}

// Reset zeroes all registers.
func (rf *RegisterFile) Reset() {
	rf.bank.Clear()
}

// Get returns the value of the named register.
func (rf *RegisterFile) Get(name string) (value uint16, err error) {
	offset, ok := _register_offset[name]
	if !ok {
		err = ErrRegisterNotFound(name)
		return
	}

	rf.bank.SetReadCursor(offset)
	return rf.bank.ReadWord()
}

// Set changes the value of the named register.
// Unknown names leave the bank untouched.
func (rf *RegisterFile) Set(name string, value uint16) (err error) {
	offset, ok := _register_offset[name]
	if !ok {
		err = ErrRegisterNotFound(name)
		return
	}

	rf.bank.SetWriteCursor(offset)
	return rf.bank.WriteWord(value)
}

// Read returns the value of a register.
func (rf *RegisterFile) Read(reg Register) (value uint16, err error) {
	if reg >= REGISTER_COUNT {
		err = ErrRegisterNotFound(reg.String())
		return
	}

	rf.bank.SetReadCursor(reg.Offset())
	return rf.bank.ReadWord()
}

// Write changes the value of a register.
func (rf *RegisterFile) Write(reg Register, value uint16) (err error) {
	if reg >= REGISTER_COUNT {
		err = ErrRegisterNotFound(reg.String())
		return
	}

	rf.bank.SetWriteCursor(reg.Offset())
	return rf.bank.WriteWord(value)
}

// Slot reads the word at a raw slot index, as encoded in an instruction
// operand. Indices past the end of the bank fail with
// memory.ErrOutOfBounds.
func (rf *RegisterFile) Slot(index byte) (value uint16, err error) {
	rf.bank.SetReadCursor(int(index) * memory.WORD_SIZE)
	return rf.bank.ReadWord()
}

// Values iterates over the registers and their values in declaration
// order, leaving the bank cursors where they were.
func (rf *RegisterFile) Values() iter.Seq2[Register, uint16] {
	return func(yield func(reg Register, value uint16) bool) {
		cursor := rf.bank.ReadIndex
		defer rf.bank.SetReadCursor(cursor)

		for reg := range Registers() {
			value, err := rf.Read(reg)
			if err != nil {
				return
			}
			if !yield(reg, value) {
				return
			}
		}
	}
}

// Snapshot saves the bank.
func (rf *RegisterFile) Snapshot() memory.Snapshot {
	return rf.bank.Snapshot()
}

// Restore returns the bank to a saved state.
func (rf *RegisterFile) Restore(snap memory.Snapshot) error {
	return rf.bank.Restore(snap)
}
