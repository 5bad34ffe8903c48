package vm

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestMemory_LoadProgram(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"empty", 0, false},
		{"single byte", 1, false},
		{"exact fit", MaxProgramSize, false},
		{"one byte too large", MaxProgramSize + 1, true},
		{"whole memory", MemorySize, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := make([]byte, tt.size)
			for i := range program {
				program[i] = byte(i*7 + 1)
			}

			var mem Memory
			err := mem.LoadProgram(program)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrProgramTooLarge))
				assert.Equal(t, Memory{}, mem)
				return
			}

			assert.NoError(t, err)
			for i, b := range program {
				assert.Equal(t, b, mem[int(ProgramStart)+i])
			}
		})
	}
}

func TestMemory_Bounds(t *testing.T) {
	var mem Memory

	assert.NoError(t, mem.WriteByte(0x0FFF, 0xAB))
	b, err := mem.ReadByte(0x0FFF)
	assert.NoError(t, err)
	assert.Equal(t, uint8(0xAB), b)

	_, err = mem.ReadByte(0x1000)
	assert.True(t, errors.Is(err, ErrOutOfBoundsAddress))

	err = mem.WriteByte(0x1000, 1)
	assert.True(t, errors.Is(err, ErrOutOfBoundsAddress))

	_, err = mem.ReadWord(0x0FFF)
	assert.True(t, errors.Is(err, ErrOutOfBoundsAddress))
}

func TestMemory_ReadWordBigEndian(t *testing.T) {
	var mem Memory
	assert.NoError(t, mem.LoadProgram([]byte{0x12, 0x34}))

	word, err := mem.ReadWord(ProgramStart)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x1234), word)
}

func TestMemory_LoadFonts(t *testing.T) {
	var mem Memory
	mem.LoadFonts()

	assert.Equal(t, 16*FontHeight, len(chip8Font))
	assert.Equal(t, uint8(0xF0), mem[FontStart])
	assert.Equal(t, uint8(0x20), mem[FontStart+FontHeight])
	assert.Equal(t, uint8(0x80), mem[FontStart+16*FontHeight-1])
	assert.Equal(t, uint8(0), mem[FontStart-1])
	assert.Equal(t, uint8(0), mem[FontStart+16*FontHeight])
}

func TestRegisters_Stack(t *testing.T) {
	var regs Registers

	for i := range StackSize {
		assert.NoError(t, regs.Push(uint16(0x200+2*i)))
	}
	assert.Equal(t, StackSize, regs.Depth())

	err := regs.Push(0x300)
	assert.True(t, errors.Is(err, ErrStackOverflow))
	assert.Equal(t, StackSize, regs.Depth())

	for i := StackSize - 1; i >= 0; i-- {
		addr, err := regs.Pop()
		assert.NoError(t, err)
		assert.Equal(t, uint16(0x200+2*i), addr)
	}

	_, err = regs.Pop()
	assert.True(t, errors.Is(err, ErrStackUnderflow))
}
