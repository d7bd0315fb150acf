package cpu

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/ezrec/vcpu/memory"
)

var _cpu_defines = func() map[string]string {
	defines := map[string]string{
		"REGISTER_COUNT": fmt.Sprintf("%v", REGISTER_COUNT),
	}
	for _, op := range opcodes {
		defines[op.String()] = fmt.Sprintf("%#02x", byte(op))
	}
	for reg := range Registers() {
		defines["SLOT_"+strings.ToUpper(reg.String())] = fmt.Sprintf("%v", byte(reg))
	}
	return defines
}()

// Cpu is the simulation context for the virtual processor.
type Cpu struct {
	Verbose       bool      // Set to enable verbose logging.
	Transactional bool      // Set to roll back registers when a step fails.
	Output        io.Writer // Destination of Debug(); os.Stdout if nil.

	Memory    *memory.Memory // Program and data memory.
	Registers *RegisterFile  // Register bank.

	Ticks int // Completed steps.
}

// NewCpu creates a new CPU executing from mem.
func NewCpu(mem *memory.Memory) (cpu *Cpu) {
	cpu = &Cpu{
		Memory:    mem,
		Registers: NewRegisterFile(),
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset zeroes the registers and the step counter. Memory is left as is.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		glog.Infof("cpu: reset")
	}

	cpu.Registers.Reset()
	cpu.Ticks = 0
}

// GetRegister returns the value of the named register.
func (cpu *Cpu) GetRegister(name string) (value uint16, err error) {
	return cpu.Registers.Get(name)
}

// SetRegister changes the value of the named register.
func (cpu *Cpu) SetRegister(name string, value uint16) (err error) {
	return cpu.Registers.Set(name, value)
}

// String returns the register dump, one 'name: 0xHHHH' line per register.
func (cpu *Cpu) String() (text string) {
	for reg, value := range cpu.Registers.Values() {
		text += fmt.Sprintf("%v: 0x%04x\n", reg, value)
	}

	return
}

// Debug writes the register dump followed by a blank line.
func (cpu *Cpu) Debug() {
	out := cpu.Output
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintln(out, cpu.String())
}

// Fetch reads the byte at ip and advances ip past it.
func (cpu *Cpu) Fetch() (value byte, err error) {
	ip, err := cpu.Registers.Read(REG_IP)
	if err != nil {
		return
	}

	cpu.Memory.SetReadCursor(int(ip))
	value, err = cpu.Memory.ReadByte()
	if err != nil {
		return
	}

	err = cpu.Registers.Write(REG_IP, ip+1)
	return
}

// FetchWord reads the word at ip and advances ip past it.
func (cpu *Cpu) FetchWord() (value uint16, err error) {
	ip, err := cpu.Registers.Read(REG_IP)
	if err != nil {
		return
	}

	cpu.Memory.SetReadCursor(int(ip))
	value, err = cpu.Memory.ReadWord()
	if err != nil {
		return
	}

	err = cpu.Registers.Write(REG_IP, ip+memory.WORD_SIZE)
	return
}

// Step fetches the opcode at ip and executes it.
//
// A failing step is not rolled back: ip and registers are left as they
// were at the point of failure. With Transactional set, the register bank
// is instead restored to its state before the step.
func (cpu *Cpu) Step() (err error) {
	if cpu.Transactional {
		snap := cpu.Registers.Snapshot()
		defer func() {
			if err == nil {
				return
			}
			restore_err := cpu.Registers.Restore(snap)
			if restore_err != nil {
				err = errors.Join(err, restore_err)
			}
		}()
	}

	if cpu.Verbose {
		ip, _ := cpu.Registers.Read(REG_IP)
		cpu.Memory.SetReadCursor(int(ip))
		op, _ := cpu.Memory.ReadByte()
		glog.Infof("%04x: %v", ip, Opcode(op))
	}

	op, err := cpu.Fetch()
	if err != nil {
		return
	}

	err = cpu.Execute(Opcode(op))
	if err != nil {
		return
	}

	cpu.Ticks++

	return
}

// Execute executes the instruction for op, fetching its operands from ip.
// Opcodes outside the instruction set fail with ErrUnknownInstruction
// without touching any register.
func (cpu *Cpu) Execute(op Opcode) (err error) {
	defer func() {
		if err != nil && op.Valid() {
			err = &ErrExecute{Opcode: op, Err: err}
		}
	}()

	switch op {
	case MOV_LIT_R1, MOV_LIT_R2:
		var literal uint16
		literal, err = cpu.FetchWord()
		if err != nil {
			return
		}
		err = cpu.Registers.Write(movTarget[op], literal)
	case ADD_REG_REG:
		var slot [2]byte
		var value [2]uint16
		for n := range slot {
			slot[n], err = cpu.Fetch()
			if err != nil {
				return
			}
		}
		for n := range slot {
			value[n], err = cpu.Registers.Slot(slot[n])
			if err != nil {
				return
			}
		}
		// 16-bit wrap on overflow.
		sum := value[0] + value[1]
		if cpu.Verbose {
			glog.Infof("cpu: acc <- %v(%#04x) + %v(%#04x)", Register(slot[0]), value[0], Register(slot[1]), value[1])
		}
		err = cpu.Registers.Write(REG_ACC, sum)
	default:
		err = ErrUnknownInstruction(op)
	}

	return
}
