package vm

import "fmt"

// Registers is the register file: V0-VF, the index register, the program
// counter and the call stack.
type Registers struct {
	V  [RegisterCount]uint8
	I  uint16
	PC uint16

	stack [StackSize]uint16
	sp    int
}

// VF doubles as the carry, borrow and collision flag.
const VF = 0x0F

func (r *Registers) reset() {
	*r = Registers{PC: ProgramStart}
}

func (r *Registers) Push(addr uint16) error {
	if r.sp >= StackSize {
		return fmt.Errorf("push 0x%04x at depth %d: %w", addr, r.sp, ErrStackOverflow)
	}
	r.stack[r.sp] = addr
	r.sp++
	return nil
}

func (r *Registers) Pop() (uint16, error) {
	if r.sp == 0 {
		return 0, ErrStackUnderflow
	}
	r.sp--
	return r.stack[r.sp], nil
}

// Depth returns the number of return addresses on the stack.
func (r *Registers) Depth() int {
	return r.sp
}
