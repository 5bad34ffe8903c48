package vm

import "fmt"

// Memory is the flat 4K address space.
//
//	0x000-0x1FF: reserved, holds the font sprites at FontStart
//	0x200-0xFFF: program space
type Memory [MemorySize]uint8

// MaxProgramSize is the largest program that fits between ProgramStart and the end of memory.
const MaxProgramSize = MemorySize - int(ProgramStart)

func (m *Memory) ReadByte(addr uint16) (uint8, error) {
	if int(addr) >= MemorySize {
		return 0, fmt.Errorf("read 0x%04x: %w", addr, ErrOutOfBoundsAddress)
	}
	return m[addr], nil
}

func (m *Memory) WriteByte(addr uint16, value uint8) error {
	if int(addr) >= MemorySize {
		return fmt.Errorf("write 0x%04x: %w", addr, ErrOutOfBoundsAddress)
	}
	m[addr] = value
	return nil
}

// ReadWord reads a big-endian instruction word.
func (m *Memory) ReadWord(addr uint16) (uint16, error) {
	if int(addr)+1 >= MemorySize {
		return 0, fmt.Errorf("fetch 0x%04x: %w", addr, ErrOutOfBoundsAddress)
	}
	return uint16(m[addr])<<8 | uint16(m[addr+1]), nil
}

// LoadProgram copies program to ProgramStart. Memory is left untouched on error.
func (m *Memory) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%d bytes, at most %d allowed: %w", len(program), MaxProgramSize, ErrProgramTooLarge)
	}
	copy(m[ProgramStart:], program)
	return nil
}

// LoadFonts seeds the hex digit sprites.
func (m *Memory) LoadFonts() {
	copy(m[FontStart:], chip8Font)
}

func (m *Memory) clear() {
	for i := range m {
		m[i] = 0
	}
}
