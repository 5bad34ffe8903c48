package vm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultInstructionsPerSecond = 700
	MaxInstructionsPerSecond     = 1_000_000
	TimerFrequency               = 60

	timerPeriod = time.Second / TimerFrequency

	// maxFrameTime bounds the wall time credited per frame so a stalled host
	// (window drag, suspend) does not replay seconds of instructions at once.
	maxFrameTime = 250 * time.Millisecond
)

// HAL is the host side of the machine: the keyboard, renderer and audio adapters.
type HAL interface {
	ReadInput(keyDown func(Key), keyUp func(Key)) error
	Draw(frame *Frame) error
	Beep(active bool) error
	WaitForNextFrame() error
}

// Runner drives a VM at a fixed instruction rate and its timers at 60 Hz.
// Both clocks accumulate the same wall time independently.
type Runner struct {
	vm          *VM
	cyclePeriod time.Duration

	cycleAcc time.Duration // time since the last instruction slot
	timerAcc time.Duration // time since the last timer tick

	now func() time.Time
}

func NewRunner(vm *VM, instructionsPerSecond int) (*Runner, error) {
	if instructionsPerSecond <= 0 || instructionsPerSecond > MaxInstructionsPerSecond {
		return nil, fmt.Errorf("instructions per second must be between 1 and %d, got %d",
			MaxInstructionsPerSecond, instructionsPerSecond)
	}

	return &Runner{
		vm:          vm,
		cyclePeriod: time.Second / time.Duration(instructionsPerSecond),
		now:         time.Now,
	}, nil
}

// Advance credits elapsed wall time to both clocks and fires every instruction
// slot and timer tick that falls due, in time order. When both are due at the
// same instant the instruction runs first. It stops at the first fault.
func (r *Runner) Advance(elapsed time.Duration) error {
	for elapsed > 0 {
		dt := min(elapsed, r.cyclePeriod-r.cycleAcc, timerPeriod-r.timerAcc)
		r.cycleAcc += dt
		r.timerAcc += dt
		elapsed -= dt

		if r.cycleAcc >= r.cyclePeriod {
			r.cycleAcc -= r.cyclePeriod
			if err := r.vm.Step(); err != nil {
				return err
			}
		}

		if r.timerAcc >= timerPeriod {
			r.timerAcc -= timerPeriod
			r.vm.TickTimers()
		}
	}

	return nil
}

// Run loops until ctx is done, the HAL fails, or the machine faults. Each
// frame reads input, advances the clocks by the wall time since the previous
// frame, then presents the display and tone state.
func (r *Runner) Run(ctx context.Context, hal HAL) error {
	last := r.now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := hal.ReadInput(r.vm.KeyDown, r.vm.KeyUp); err != nil {
			return err
		}

		now := r.now()
		elapsed := min(now.Sub(last), maxFrameTime)
		last = now

		stepErr := r.Advance(elapsed)

		if err := r.present(hal); err != nil {
			return err
		}

		if stepErr != nil {
			return errors.Join(stepErr, hal.Beep(false))
		}

		if err := hal.WaitForNextFrame(); err != nil {
			return err
		}
	}
}

func (r *Runner) present(hal HAL) error {
	if r.vm.TakeDirty() {
		frame := r.vm.Frame()
		if err := hal.Draw(&frame); err != nil {
			return err
		}
	}

	return hal.Beep(r.vm.ToneActive())
}
