package vm

import (
	"context"
	"fmt"
	"log/slog"
)

func (vm *VM) executeOpcode(opcode uint16) error {
	instr, err := Decode(opcode)
	if err != nil {
		return err
	}

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", vm.registers.PC),
			"opcode", fmt.Sprintf("0x%04x", opcode),
			"instr", instr.String(),
		)
	}

	return instructions[instr.Op].Execute(vm, instr)
}

type instruction struct {
	Name    func(in Instruction) string
	Execute func(vm *VM, in Instruction) error
}

// instructions is indexed by Op. Every handler leaves PC pointing at the next
// instruction to run.
var instructions = [opCount]instruction{
	// 00E0	cls	Clear the screen
	OpCls: {
		Name: func(Instruction) string {
			return "cls"
		},
		Execute: func(vm *VM, in Instruction) error {
			vm.display.Clear()
			vm.next()
			return nil
		},
	},

	// 00EE	rts	return from subroutine call
	OpRet: {
		Name: func(Instruction) string {
			return "rts"
		},
		Execute: func(vm *VM, in Instruction) error {
			addr, err := vm.registers.Pop()
			if err != nil {
				return err
			}
			vm.registers.PC = addr
			return nil
		},
	},

	// 1xxx	jmp xxx	jump to address xxx
	OpJump: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("jmp 0x%04x", in.NNN)
		},
		Execute: func(vm *VM, in Instruction) error {
			if in.NNN == vm.registers.PC && !vm.looped {
				vm.looped = true
				slog.Info("program looped", "pc", fmt.Sprintf("0x%04x", in.NNN))
			}
			vm.registers.PC = in.NNN
			return nil
		},
	},

	// 2xxx	jsr xxx	jump to subroutine at address xxx
	OpCall: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("jsr 0x%04x", in.NNN)
		},
		Execute: func(vm *VM, in Instruction) error {
			if err := vm.registers.Push(vm.registers.PC + InstructionSize); err != nil {
				return err
			}
			vm.registers.PC = in.NNN
			return nil
		},
	},

	// 3rxx	skeq vr,xx	skip if register r = constant
	OpSkipEqImm: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("skeq v%x, %d", in.X, in.KK)
		},
		Execute: func(vm *VM, in Instruction) error {
			vm.skipIf(vm.registers.V[in.X] == in.KK)
			return nil
		},
	},

	// 4rxx	skne vr,xx	skip if register r <> constant
	OpSkipNeImm: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("skne v%x, %d", in.X, in.KK)
		},
		Execute: func(vm *VM, in Instruction) error {
			vm.skipIf(vm.registers.V[in.X] != in.KK)
			return nil
		},
	},

	// 5ry0	skeq vr,vy	skip if register r = register y
	OpSkipEqReg: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("skeq v%x, v%x", in.X, in.Y)
		},
		Execute: func(vm *VM, in Instruction) error {
			vm.skipIf(vm.registers.V[in.X] == vm.registers.V[in.Y])
			return nil
		},
	},

	// 6rxx	mov vr,xx	move constant to register r
	OpLoadImm: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("mov v%x, %d", in.X, in.KK)
		},
		Execute: func(vm *VM, in Instruction) error {
			vm.registers.V[in.X] = in.KK
			vm.next()
			return nil
		},
	},

	// 7rxx	add vr,xx	add constant to register r	No carry generated
	OpAddImm: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("add v%x, %d", in.X, in.KK)
		},
		Execute: func(vm *VM, in Instruction) error {
			vm.registers.V[in.X] += in.KK
			vm.next()
			return nil
		},
	},

	// 8ry0	mov vr,vy	move register vy into vr
	OpMove: {
		Name:    registerPairName("mov"),
		Execute: arithmetic(func(x, y uint8) (uint8, uint8, bool) { return y, 0, false }),
	},

	// 8ry1	or rx,ry	or register vy into register vx
	OpOr: {
		Name:    registerPairName("or"),
		Execute: arithmetic(func(x, y uint8) (uint8, uint8, bool) { return x | y, 0, false }),
	},

	// 8ry2	and rx,ry	and register vy into register vx
	OpAnd: {
		Name:    registerPairName("and"),
		Execute: arithmetic(func(x, y uint8) (uint8, uint8, bool) { return x & y, 0, false }),
	},

	// 8ry3	xor rx,ry	exclusive or register ry into register rx
	OpXor: {
		Name:    registerPairName("xor"),
		Execute: arithmetic(func(x, y uint8) (uint8, uint8, bool) { return x ^ y, 0, false }),
	},

	// 8ry4	add vr,vy	add register vy to vr,carry in vf
	OpAdd: {
		Name: registerPairName("add"),
		Execute: arithmetic(func(x, y uint8) (uint8, uint8, bool) {
			sum := uint16(x) + uint16(y)
			return uint8(sum), flag(sum > 0xFF), true
		}),
	},

	// 8ry5	sub vr,vy	subtract register vy from vr, vf set to 1 if there is no borrow
	OpSub: {
		Name: registerPairName("sub"),
		Execute: arithmetic(func(x, y uint8) (uint8, uint8, bool) {
			return x - y, flag(x >= y), true
		}),
	},

	// 8ry6	shr vr,vy	shift right, bit 0 goes into register vf
	OpShr: {
		Name: registerPairName("shr"),
		Execute: func(vm *VM, in Instruction) error {
			src := vm.shiftSource(in)
			vm.registers.V[in.X] = src >> 1
			vm.registers.V[VF] = src & 0x1
			vm.next()
			return nil
		},
	},

	// 8ry7	rsb vr,vy	subtract register vr from register vy, result in vr, vf set to 1 if there is no borrow
	OpSubn: {
		Name: registerPairName("rsb"),
		Execute: arithmetic(func(x, y uint8) (uint8, uint8, bool) {
			return y - x, flag(y >= x), true
		}),
	},

	// 8rye	shl vr,vy	shift left, bit 7 goes into register vf
	OpShl: {
		Name: registerPairName("shl"),
		Execute: func(vm *VM, in Instruction) error {
			src := vm.shiftSource(in)
			vm.registers.V[in.X] = src << 1
			vm.registers.V[VF] = src >> 7
			vm.next()
			return nil
		},
	},

	// 9ry0	skne rx,ry	skip if register rx <> register ry
	OpSkipNeReg: {
		Name: registerPairName("skne"),
		Execute: func(vm *VM, in Instruction) error {
			vm.skipIf(vm.registers.V[in.X] != vm.registers.V[in.Y])
			return nil
		},
	},

	// axxx	mvi xxx	Load index register with constant xxx
	OpLoadIndex: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("mvi 0x%04x", in.NNN)
		},
		Execute: func(vm *VM, in Instruction) error {
			vm.registers.I = in.NNN
			vm.next()
			return nil
		},
	},

	// bxxx	jmi xxx	Jump to address xxx+register v0 (legacy) or xxx+register vx (modern)
	OpJumpOffset: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("jmi 0x%04x", in.NNN)
		},
		Execute: func(vm *VM, in Instruction) error {
			offset := vm.registers.V[0]
			if vm.mode == ModeModern {
				offset = vm.registers.V[in.X]
			}

			target := in.NNN + uint16(offset)
			if int(target) >= MemorySize {
				return fmt.Errorf("jump to 0x%04x: %w", target, ErrOutOfBoundsAddress)
			}
			vm.registers.PC = target
			return nil
		},
	},

	// crxx	rand vr,xx	vr = random number masked by xx
	OpRand: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("rand v%x, %d", in.X, in.KK)
		},
		Execute: func(vm *VM, in Instruction) error {
			vm.registers.V[in.X] = uint8(vm.rng.Uint32()) & in.KK
			vm.next()
			return nil
		},
	},

	// sprite rx,ry,s	Draw sprite at screen location rx,ry height s
	// Sprites stored in memory at location in index register, maximum 8 bits wide.
	// Wraps around the screen.
	// If when drawn, clears a pixel, vf is set to 1 otherwise it is zero.
	// All drawing is xor drawing (e.g. it toggles the screen pixels)
	OpDraw: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("sprite v%x, v%x, %d", in.X, in.Y, in.N)
		},
		Execute: func(vm *VM, in Instruction) error {
			sprite, err := vm.memoryRange(vm.registers.I, int(in.N))
			if err != nil {
				return err
			}

			collision := vm.display.DrawSprite(vm.registers.V[in.X], vm.registers.V[in.Y], sprite)
			vm.registers.V[VF] = flag(collision)
			vm.next()
			return nil
		},
	},

	// ek9e	skpr k	skip if key (register rk) pressed	The key is a key number, see the chip-8 documentation
	OpSkipKey: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("skpr v%x", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			key, err := vm.keyOperand(in)
			if err != nil {
				return err
			}
			vm.skipIf(vm.keypad.IsPressed(key))
			return nil
		},
	},

	// eka1	skup k	skip if key (register rk) not pressed
	OpSkipNotKey: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("skup v%x", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			key, err := vm.keyOperand(in)
			if err != nil {
				return err
			}
			vm.skipIf(!vm.keypad.IsPressed(key))
			return nil
		},
	},

	// fr07	gdelay vr	get delay timer into vr
	OpGetDelay: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("gdelay v%x", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			vm.registers.V[in.X] = vm.delayTimer
			vm.next()
			return nil
		},
	},

	// fr0a	key vr	wait for for keypress,put key in register vr
	// PC stays on this instruction until the scheduler sees a key down.
	OpWaitKey: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("key v%x", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			vm.waitRegister = in.X
			vm.state = WaitingForKey
			return nil
		},
	},

	// fr15	sdelay vr	set the delay timer to vr
	OpSetDelay: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("sdelay v%x", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			vm.delayTimer = vm.registers.V[in.X]
			vm.next()
			return nil
		},
	},

	// fr18	ssound vr	set the sound timer to vr
	OpSetSound: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("ssound v%x", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			vm.soundTimer = vm.registers.V[in.X]
			vm.next()
			return nil
		},
	},

	// fr1e	adi vr	add register vr to the index register
	// VF is set to 1 when I+VX > 0xFFF, and 0 when it isn't.
	// A sum that no longer fits I is a fault.
	OpAddIndex: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("adi v%x", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			index := int(vm.registers.I) + int(vm.registers.V[in.X])
			if index > 0xFFFF {
				return fmt.Errorf("index 0x%04x + v%x: %w", vm.registers.I, in.X, ErrOutOfBoundsAddress)
			}
			vm.registers.I = uint16(index)
			vm.registers.V[VF] = flag(index > 0x0FFF)
			vm.next()
			return nil
		},
	},

	// fr29	font vr	point I to the sprite for hexadecimal character in vr	Sprite is 5 bytes high
	OpFont: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("font v%x", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			addr, err := fontAddr(vm.registers.V[in.X])
			if err != nil {
				return err
			}
			vm.registers.I = addr
			vm.next()
			return nil
		},
	},

	// fr33	bcd vr	store the bcd representation of register vr at location I,I+1,I+2	Doesn't change I
	OpBCD: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("bcd v%x", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			digits, err := vm.memoryRange(vm.registers.I, 3)
			if err != nil {
				return err
			}

			x := vm.registers.V[in.X]
			digits[0] = x / 100
			digits[1] = (x / 10) % 10
			digits[2] = x % 10
			vm.next()
			return nil
		},
	},

	// fr55	str v0-vr	store registers v0-vr at location I onwards
	// In legacy mode I is incremented to point to the next location on. e.g. I = I + r + 1
	OpStore: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("str %d", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			dst, err := vm.memoryRange(vm.registers.I, int(in.X)+1)
			if err != nil {
				return err
			}

			copy(dst, vm.registers.V[:in.X+1])
			vm.advanceIndex(in)
			vm.next()
			return nil
		},
	},

	// fx65	ldr v0-vr	load registers v0-vr from location I onwards.
	OpLoad: {
		Name: func(in Instruction) string {
			return fmt.Sprintf("ldr %d", in.X)
		},
		Execute: func(vm *VM, in Instruction) error {
			src, err := vm.memoryRange(vm.registers.I, int(in.X)+1)
			if err != nil {
				return err
			}

			copy(vm.registers.V[:in.X+1], src)
			vm.advanceIndex(in)
			vm.next()
			return nil
		},
	},
}

func (vm *VM) next() {
	vm.registers.PC += InstructionSize
}

func (vm *VM) skipIf(cond bool) {
	if cond {
		vm.registers.PC += 2 * InstructionSize
	} else {
		vm.registers.PC += InstructionSize
	}
}

// shiftSource picks the operand of 8xy6/8xyE according to the mode.
func (vm *VM) shiftSource(in Instruction) uint8 {
	if vm.mode == ModeLegacy {
		return vm.registers.V[in.Y]
	}
	return vm.registers.V[in.X]
}

// advanceIndex applies the legacy Fx55/Fx65 side effect on I.
func (vm *VM) advanceIndex(in Instruction) {
	if vm.mode == ModeLegacy {
		vm.registers.I += uint16(in.X) + 1
	}
}

// memoryRange returns n bytes of memory starting at addr. The whole range is
// checked up front so a faulting instruction leaves memory untouched.
func (vm *VM) memoryRange(addr uint16, n int) ([]uint8, error) {
	end := int(addr) + n
	if end > MemorySize {
		return nil, fmt.Errorf("access 0x%04x-0x%04x: %w", addr, end-1, ErrOutOfBoundsAddress)
	}
	return vm.memory[addr:end], nil
}

func (vm *VM) keyOperand(in Instruction) (Key, error) {
	key := vm.registers.V[in.X]
	if int(key) >= KeyCount {
		return 0, fmt.Errorf("v%x holds 0x%02x: %w", in.X, key, ErrInvalidKey)
	}
	return Key(key), nil
}

// arithmetic builds the handler of an 8xyN register-register operation. The
// flag, when produced, is written after the result so VF ends up holding the
// flag even when x is F.
func arithmetic(op func(x, y uint8) (result, vf uint8, setsVF bool)) func(vm *VM, in Instruction) error {
	return func(vm *VM, in Instruction) error {
		result, vf, setsVF := op(vm.registers.V[in.X], vm.registers.V[in.Y])
		vm.registers.V[in.X] = result
		if setsVF {
			vm.registers.V[VF] = vf
		}
		vm.next()
		return nil
	}
}

func registerPairName(mnemonic string) func(in Instruction) string {
	return func(in Instruction) string {
		return fmt.Sprintf("%s v%x, v%x", mnemonic, in.X, in.Y)
	}
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
