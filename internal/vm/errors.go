package vm

import (
	"errors"
	"fmt"
)

var (
	ErrProgramTooLarge    = errors.New("program too large")
	ErrUnknownOpcode      = errors.New("unknown opcode")
	ErrStackOverflow      = errors.New("stack overflow")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrOutOfBoundsAddress = errors.New("address out of bounds")
	ErrInvalidKey         = errors.New("invalid key")
	ErrInvalidFont        = errors.New("invalid font digit")
)

// Fault is the terminal result of a halted machine. It carries the failing
// instruction word and the address it was fetched from.
type Fault struct {
	Err    error
	Opcode uint16
	PC     uint16
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault at 0x%04x (opcode 0x%04X): %v", f.PC, f.Opcode, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
