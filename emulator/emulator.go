// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/golang/glog"

	"github.com/ezrec/vcpu/cpu"
	"github.com/ezrec/vcpu/internal"
	"github.com/ezrec/vcpu/memory"
)

const (
	MEMORY_SIZE = 256 // Default program memory size, in bytes.
)

// Emulator state. CPU + memory + the loaded program.
//
// The emulator is the driver of the CPU: it installs the program image,
// then steps until ip leaves the image, a step fails, or a step limit is
// reached.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	defines map[string]string
}

// NewEmulator creates a new emulator with size bytes of program memory.
func NewEmulator(size int) (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(memory.New(size)),
		Program: &cpu.Program{},
		defines: map[string]string{
			"MEMORY_SIZE": fmt.Sprintf("%v", size),
		},
	}

	return
}

// Defines returns an iterator over all of the defines, in name order.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.SortedSeq2(maps.All(emu.defines), emu.Cpu.Defines())
}

// Assembler returns an assembler with the emulator defines predefined.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.defines {
		asm.Predefine(key, value)
	}

	return
}

// LoadImage replaces the program with a raw memory image.
func (emu *Emulator) LoadImage(image []byte) (err error) {
	emu.Program = &cpu.Program{
		Lines: []cpu.Line{
			{Ip: 0, Words: []string{".image"}, Bytes: slices.Clone(image)},
		},
	}

	return emu.Reset()
}

// Reset clears memory and registers, and installs the program image.
// An image larger than memory is rejected and leaves memory cleared.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Cpu.Memory.Clear()
	emu.Cpu.Reset()

	err = emu.Cpu.Memory.Load(emu.Program.Binary())
	if err != nil {
		return
	}

	if emu.Verbose {
		glog.Infof("emulator: loaded %v bytes", emu.Program.Size())
	}

	return
}

// Ticks returns the total completed steps since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() uint16 {
	ip, _ := emu.Cpu.Registers.Read(cpu.REG_IP)
	return ip
}

// LineNo returns the current line number for the executing instruction.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Ip())
	if dbg.Line == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single step of the emulator.
// done is set, without stepping, once ip is past the end of the program.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	ip := emu.Ip()
	if int(ip) >= emu.Program.Size() {
		done = true
		return
	}

	lineno := emu.LineNo()
	err = emu.Cpu.Step()
	if err != nil {
		err = &ErrRuntime{LineNo: lineno, Ip: ip, Err: err}
	}

	return
}

// Run ticks until the program is done or limit steps have been taken.
// A limit of 0 runs until done.
func (emu *Emulator) Run(limit int) (steps int, err error) {
	for limit == 0 || steps < limit {
		var done bool
		done, err = emu.Tick()
		if done || err != nil {
			return
		}
		steps++
	}

	if emu.Verbose {
		glog.Infof("emulator: step limit %v reached at ip %#04x", limit, emu.Ip())
	}

	return
}
