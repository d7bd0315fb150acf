package cpu

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/vcpu/memory"
)

func FuzzCpu(f *testing.F) {
	for op := range 0x20 {
		f.Add(uint8(op), uint8(2), uint8(3), int64(op))
	}
	f.Add(uint8(ADD_REG_REG), uint8(0), uint8(10), int64(1))
	f.Add(uint8(ADD_REG_REG), uint8(0xff), uint8(0xff), int64(2))

	f.Fuzz(func(t *testing.T, opcode uint8, a uint8, b uint8, seed int64) {
		assert := assert.New(t)

		rands := rand.New(rand.NewSource(seed))

		cpu := newTestCpu(t, 3, []byte{opcode, a, b})

		pre_value := [REGISTER_COUNT]uint16{}
		for reg := range Registers() {
			if reg == REG_IP {
				continue
			}
			pre_value[reg] = uint16(rands.Uint32())
			assert.NoError(cpu.Registers.Write(reg, pre_value[reg]))
		}

		err := cpu.Step()

		now_value := [REGISTER_COUNT]uint16{}
		for reg, value := range cpu.Registers.Values() {
			now_value[reg] = value
		}

		code_str := fmt.Sprintf("%v %#02x %#02x\npre:%#v\ncpu:%v", Opcode(opcode), a, b, pre_value, cpu.String())

		expected := pre_value
		switch Opcode(opcode) {
		case MOV_LIT_R1, MOV_LIT_R2:
			assert.NoError(err, code_str)
			expected[REG_IP] = 3
			expected[movTarget[Opcode(opcode)]] = uint16(a)<<8 | uint16(b)
		case ADD_REG_REG:
			expected[REG_IP] = 3
			if a >= REGISTER_COUNT || b >= REGISTER_COUNT {
				assert.ErrorIs(err, memory.ErrOutOfBounds, code_str)
				break
			}
			assert.NoError(err, code_str)
			// ip is read after both operands are fetched.
			slots := pre_value
			slots[REG_IP] = 3
			expected[REG_ACC] = slots[a] + slots[b]
		default:
			assert.ErrorIs(err, ErrUnknownInstruction(opcode), code_str)
			assert.False(errors.Is(err, memory.ErrOutOfBounds), code_str)
			expected[REG_IP] = 1
		}

		assert.Equal(expected, now_value, code_str)
	})
}
