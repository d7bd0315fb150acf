package cpu

import (
	"slices"
)

// Opcode is the first byte of an instruction.
type Opcode byte

//go:generate go tool stringer -type=Opcode
const (
	MOV_LIT_R1  = Opcode(0x10) // r1 <- imm16
	MOV_LIT_R2  = Opcode(0x11) // r2 <- imm16
	ADD_REG_REG = Opcode(0x12) // acc <- slot(a) + slot(b)
)

var opcodes = []Opcode{MOV_LIT_R1, MOV_LIT_R2, ADD_REG_REG}

// Opcodes returns the closed instruction set in opcode order.
func Opcodes() []Opcode {
	return slices.Clone(opcodes)
}

// Valid returns true if the opcode is part of the instruction set.
func (op Opcode) Valid() bool {
	return slices.Contains(opcodes, op)
}

// OperandSize returns the number of operand bytes following the opcode.
//   - MOV_LIT_R1, MOV_LIT_R2: a big-endian 16-bit literal.
//   - ADD_REG_REG: two register slot indices, one byte each.
func (op Opcode) OperandSize() (size int) {
	switch op {
	case MOV_LIT_R1, MOV_LIT_R2, ADD_REG_REG:
		size = 2
	}
	return
}

// movTarget maps the literal move opcodes to their destination.
var movTarget = map[Opcode]Register{
	MOV_LIT_R1: REG_R1,
	MOV_LIT_R2: REG_R2,
}
