package vm

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

const (
	MemorySize    = 4096
	StackSize     = 16
	RegisterCount = 16
	ScreenWidth   = 64
	ScreenHeight  = 32
	KeyCount      = 16

	ProgramStart    = uint16(0x200)
	InstructionSize = 2
)

// State is the execution state of the machine.
type State uint8

const (
	Running State = iota
	// WaitingForKey holds PC on an Fx0A instruction until a key is pressed.
	WaitingForKey
	// Halted is terminal, entered on a fault.
	Halted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case WaitingForKey:
		return "waiting-for-key"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Options are fixed for the lifetime of a VM.
type Options struct {
	Mode Mode
	// Seed feeds the Cxkk random source. Zero seeds from the wall clock.
	Seed uint64
}

type VM struct {
	memory    Memory
	registers Registers
	display   Display
	keypad    Keypad

	delayTimer uint8 // Delay timer
	soundTimer uint8 // Sound timer

	mode  Mode
	seed  uint64
	rng   *rand.Rand
	state State
	fault *Fault

	waitRegister uint8 // destination of a pending Fx0A
	looped       bool  // a self-jump has been reported

	program []byte
}

// New creates a machine with the fonts and program loaded and PC at
// ProgramStart. An oversized program yields ErrProgramTooLarge.
func New(program []byte, opts Options) (*VM, error) {
	if len(program) > MaxProgramSize {
		return nil, fmt.Errorf("unable to load program: %d bytes, at most %d allowed: %w",
			len(program), MaxProgramSize, ErrProgramTooLarge)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	vm := &VM{
		mode:    opts.Mode,
		seed:    seed,
		program: append([]byte(nil), program...),
	}
	if err := vm.Reset(); err != nil {
		return nil, err
	}

	return vm, nil
}

// Reset restores the power-on state and reloads the program.
func (vm *VM) Reset() error {
	vm.registers.reset()
	vm.display.Clear()
	vm.keypad.Release()

	slog.Debug("clear memory", "n", len(vm.memory))
	vm.memory.clear()

	slog.Debug("load font", "at", fmt.Sprintf("0x%04x", FontStart), "n", len(chip8Font))
	vm.memory.LoadFonts()

	slog.Info("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(vm.program))
	if err := vm.memory.LoadProgram(vm.program); err != nil {
		return fmt.Errorf("unable to load program: %w", err)
	}

	vm.delayTimer = 0
	vm.soundTimer = 0

	vm.rng = rand.New(rand.NewPCG(vm.seed, vm.seed>>32|vm.seed<<32))
	vm.state = Running
	vm.fault = nil
	vm.waitRegister = 0
	vm.looped = false

	return nil
}

// Step runs one tick: it resolves a pending key wait or executes exactly one
// instruction. Once halted every call returns the same *Fault.
func (vm *VM) Step() error {
	switch vm.state {
	case Halted:
		return vm.fault

	case WaitingForKey:
		vm.resolveKeyWait()
		return nil
	}

	pc := vm.registers.PC
	opcode, err := vm.memory.ReadWord(pc)
	if err != nil {
		return vm.halt(err, 0, pc)
	}

	if err := vm.executeOpcode(opcode); err != nil {
		return vm.halt(err, opcode, pc)
	}

	return nil
}

func (vm *VM) halt(err error, opcode, pc uint16) error {
	vm.state = Halted
	vm.fault = &Fault{Err: err, Opcode: opcode, PC: pc}

	slog.Error("machine halted",
		"pc", fmt.Sprintf("0x%04x", pc),
		"opcode", fmt.Sprintf("0x%04X", opcode),
		"err", err,
	)

	return vm.fault
}

func (vm *VM) resolveKeyWait() {
	key, ok := vm.keypad.FirstPressed()
	if !ok {
		return
	}

	vm.registers.V[vm.waitRegister] = uint8(key)
	vm.registers.PC += InstructionSize
	vm.state = Running
}

// TickTimers decrements the delay and sound timers once, flooring at zero.
// It is driven at 60 Hz by the scheduler, never by instructions.
func (vm *VM) TickTimers() {
	if vm.state == Halted {
		return
	}

	if vm.delayTimer > 0 {
		vm.delayTimer--
	}

	if vm.soundTimer > 0 {
		vm.soundTimer--
	}
}

func (vm *VM) KeyDown(key Key) {
	vm.keypad.KeyDown(key)
}

func (vm *VM) KeyUp(key Key) {
	vm.keypad.KeyUp(key)
}

// ToneActive reports whether the sound timer is running.
func (vm *VM) ToneActive() bool {
	return vm.soundTimer > 0
}

// Frame returns a snapshot of the display.
func (vm *VM) Frame() Frame {
	return vm.display.Snapshot()
}

// TakeDirty reports whether the display changed since the last call.
func (vm *VM) TakeDirty() bool {
	dirty := vm.display.dirty
	vm.display.dirty = false
	return dirty
}

func (vm *VM) Registers() Registers {
	return vm.registers
}

func (vm *VM) DelayTimer() uint8 {
	return vm.delayTimer
}

func (vm *VM) SoundTimer() uint8 {
	return vm.soundTimer
}

func (vm *VM) State() State {
	return vm.state
}

func (vm *VM) Mode() Mode {
	return vm.mode
}

// Fault returns the error that halted the machine, or nil.
func (vm *VM) Fault() *Fault {
	return vm.fault
}

// ReadByte exposes memory for inspection.
func (vm *VM) ReadByte(addr uint16) (uint8, error) {
	return vm.memory.ReadByte(addr)
}
