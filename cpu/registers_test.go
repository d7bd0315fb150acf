package cpu

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/vcpu/memory"
)

var registerNames = []string{"ip", "acc", "r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8"}

func TestRegisters_Order(t *testing.T) {
	assert := assert.New(t)

	var names []string
	for reg := range Registers() {
		names = append(names, reg.String())
	}
	assert.Equal(registerNames, names)
}

func TestRegisters_Offsets(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(len(registerNames), len(_register_offset))

	var offsets []int
	for _, name := range registerNames {
		offset, ok := _register_offset[name]
		assert.True(ok, name)
		offsets = append(offsets, offset)
	}

	// Dense, word aligned, in declaration order from 0.
	for n, offset := range offsets {
		assert.Equal(n*2, offset, registerNames[n])
	}
	assert.Equal(0, _register_offset["ip"])
}

func TestLookupRegister(t *testing.T) {
	assert := assert.New(t)

	reg, err := LookupRegister("acc")
	assert.NoError(err)
	assert.Equal(REG_ACC, reg)

	reg, err = LookupRegister("r8")
	assert.NoError(err)
	assert.Equal(REG_R8, reg)

	_, err = LookupRegister("r9")
	assert.ErrorIs(err, ErrRegisterNotFound("r9"))
}

func TestRegisterFile_GetSet(t *testing.T) {
	assert := assert.New(t)

	rf := NewRegisterFile()

	for n, name := range registerNames {
		value, err := rf.Get(name)
		assert.NoError(err)
		assert.Equal(uint16(0), value, name)

		err = rf.Set(name, uint16(0x1111*(n+1)))
		assert.NoError(err)
	}

	for n, name := range registerNames {
		value, err := rf.Get(name)
		assert.NoError(err)
		assert.Equal(uint16(0x1111*(n+1)), value, name)
	}
}

func TestRegisterFile_AllValues(t *testing.T) {
	rf := NewRegisterFile()

	for _, name := range registerNames {
		for value := range 0x10000 {
			err := rf.Set(name, uint16(value))
			if err != nil {
				t.Fatalf("%v: set %#04x: %v", name, value, err)
			}
			got, err := rf.Get(name)
			if err != nil || uint16(value) != got {
				t.Fatalf("%v: set %#04x got %#04x (%v)", name, value, got, err)
			}
		}
	}
}

func TestRegisterFile_NoAliasing(t *testing.T) {
	assert := assert.New(t)

	rf := NewRegisterFile()
	assert.NoError(rf.Set("r1", 0xffff))

	for _, name := range registerNames {
		value, err := rf.Get(name)
		assert.NoError(err)
		if name == "r1" {
			assert.Equal(uint16(0xffff), value)
		} else {
			assert.Equal(uint16(0), value, name)
		}
	}
}

func TestRegisterFile_NotFound(t *testing.T) {
	assert := assert.New(t)

	rf := NewRegisterFile()
	for _, name := range registerNames {
		assert.NoError(rf.Set(name, 0x5a5a))
	}
	before := rf.Snapshot()

	for _, name := range []string{"", "r0", "r9", "IP", "pc", "ip "} {
		_, err := rf.Get(name)
		assert.ErrorIs(err, ErrRegisterNotFound(name))

		err = rf.Set(name, 0x1234)
		assert.ErrorIs(err, ErrRegisterNotFound(name))
	}

	assert.Equal(before.Data, rf.Snapshot().Data)
}

func TestRegisterFile_ReadWrite(t *testing.T) {
	assert := assert.New(t)

	rf := NewRegisterFile()

	assert.NoError(rf.Write(REG_R3, 0xbeef))
	value, err := rf.Get("r3")
	assert.NoError(err)
	assert.Equal(uint16(0xbeef), value)

	value, err = rf.Read(REG_R3)
	assert.NoError(err)
	assert.Equal(uint16(0xbeef), value)

	_, err = rf.Read(Register(REGISTER_COUNT))
	assert.ErrorIs(err, ErrRegisterNotFound("Register(10)"))
	err = rf.Write(Register(0xff), 1)
	assert.ErrorIs(err, ErrRegisterNotFound("Register(255)"))
}

func TestRegisterFile_Slot(t *testing.T) {
	assert := assert.New(t)

	rf := NewRegisterFile()
	assert.NoError(rf.Set("r1", 0x1234))
	assert.NoError(rf.Set("r2", 0xabcd))

	// Slot indices and names address the same words.
	value, err := rf.Slot(2)
	assert.NoError(err)
	assert.Equal(uint16(0x1234), value)

	value, err = rf.Slot(byte(REG_R2))
	assert.NoError(err)
	assert.Equal(uint16(0xabcd), value)

	_, err = rf.Slot(REGISTER_COUNT)
	assert.ErrorIs(err, memory.ErrOutOfBounds)

	_, err = rf.Slot(0xff)
	assert.ErrorIs(err, memory.ErrOutOfBounds)
}

func TestRegisterFile_Values(t *testing.T) {
	assert := assert.New(t)

	rf := NewRegisterFile()
	assert.NoError(rf.Set("acc", 7))

	var regs []Register
	var values []uint16
	for reg, value := range rf.Values() {
		regs = append(regs, reg)
		values = append(values, value)
	}

	assert.Equal(slices.Collect(Registers()), regs)
	assert.Equal([]uint16{0, 7, 0, 0, 0, 0, 0, 0, 0, 0}, values)
}

func TestRegisterFile_Reset(t *testing.T) {
	assert := assert.New(t)

	rf := NewRegisterFile()
	assert.NoError(rf.Set("r8", 8))
	rf.Reset()

	value, err := rf.Get("r8")
	assert.NoError(err)
	assert.Equal(uint16(0), value)
}

func FuzzRegisterFile(f *testing.F) {
	f.Add(uint8(0), uint16(0))
	f.Add(uint8(1), uint16(0xffff))
	f.Add(uint8(9), uint16(0x8000))

	f.Fuzz(func(t *testing.T, index uint8, value uint16) {
		assert := assert.New(t)

		rf := NewRegisterFile()
		name := registerNames[int(index)%len(registerNames)]

		assert.NoError(rf.Set(name, value))
		got, err := rf.Get(name)
		assert.NoError(err)
		assert.Equal(value, got)

		reg, err := LookupRegister(name)
		assert.NoError(err)
		got, err = rf.Slot(byte(reg))
		assert.NoError(err)
		assert.Equal(value, got)
	})
}
