// Package cpu implements the virtual processor and its assembler.
//
// The CPU has ten 16-bit registers (ip, acc, r1-r8) held in a register
// bank, a byte-addressed program memory, and a closed set of three
// instructions. Registers are addressed two ways: by name, for the
// driver-facing API and the mov instructions, and by numeric slot index,
// for the operands of add. Both modes resolve to the same word in the
// bank.
//
// The assembler turns a small text language into a Program whose binary
// image is loaded into memory ahead of execution.
package cpu
