package hal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"github.com/kapitanov/cosmac8/internal/vm"
	"github.com/veandco/go-sdl2/sdl"
)

const frameDuration = time.Second / vm.TimerFrequency

type HAL struct {
	window          *sdl.Window
	renderer        *sdl.Renderer
	texture         *sdl.Texture
	backBuffer      []uint32
	backBufferPitch int

	fgColor uint32
	bgColor uint32

	tone      Tone
	nextFrame time.Time
}

// Tone is the buzzer driven by the sound timer.
type Tone interface {
	SetActive(active bool)
}

type Options struct {
	Title      string
	Scale      int
	Foreground uint32
	Background uint32
	// Tone may be nil to run silently.
	Tone Tone
}

var (
	ErrReboot = errors.New("reboot")
	ErrQuit   = errors.New("quit")
)

var _ vm.HAL = (*HAL)(nil)

func New(opts Options) (*HAL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("failed to init sdl: %w", err)
	}

	width := int32(vm.ScreenWidth * opts.Scale)
	height := int32(vm.ScreenHeight * opts.Scale)

	window, err := sdl.CreateWindow(opts.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, width, height, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create sdl window: %w", err)
	}
	slog.Debug("hal: create window", "width", width, "height", height)

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create sdl renderer: %w", err), window.Destroy())
	}
	err = renderer.SetLogicalSize(width, height)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to resize sdl renderer: %w", err), renderer.Destroy(), window.Destroy())
	}
	slog.Debug("hal: create renderer")

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, vm.ScreenWidth, vm.ScreenHeight)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create sdl texture: %w", err), renderer.Destroy(), window.Destroy())
	}
	slog.Debug("hal: create texture")

	return &HAL{
		window:          window,
		renderer:        renderer,
		texture:         texture,
		backBuffer:      make([]uint32, vm.ScreenWidth*vm.ScreenHeight),
		backBufferPitch: int(vm.ScreenWidth) * int(unsafe.Sizeof(uint32(0))),
		fgColor:         opts.Foreground,
		bgColor:         opts.Background,
		tone:            opts.Tone,
	}, nil
}

func (hal *HAL) Shutdown() {
	if hal.tone != nil {
		hal.tone.SetActive(false)
	}

	if err := hal.texture.Destroy(); err != nil {
		slog.Error("failed to destroy sdl texture", "err", err)
	}

	if err := hal.renderer.Destroy(); err != nil {
		slog.Error("failed to destroy sdl renderer", "err", err)
	}

	if err := hal.window.Destroy(); err != nil {
		slog.Error("failed to destroy sdl window", "err", err)
	}

	sdl.Quit()
}

func (hal *HAL) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch e.GetType() {
		case sdl.QUIT:
			slog.Debug("hal: exit requested")
			return ErrQuit
		case sdl.KEYDOWN:
			err := hal.processKeyDown(e.(*sdl.KeyboardEvent), keyDown)
			if err != nil {
				return err
			}

		case sdl.KEYUP:
			hal.processKeyUp(e.(*sdl.KeyboardEvent), keyUp)
		}
	}

	return nil
}

func (hal *HAL) processKeyDown(e *sdl.KeyboardEvent, callback func(vm.Key)) error {
	if e.Keysym.Scancode == sdl.SCANCODE_BACKSPACE {
		slog.Debug("hal: reboot requested")
		return ErrReboot
	}

	key, ok := keyMap(e.Keysym.Scancode)
	if ok {
		callback(key)
	}

	return nil
}

func (hal *HAL) processKeyUp(e *sdl.KeyboardEvent, callback func(vm.Key)) {
	key, ok := keyMap(e.Keysym.Scancode)
	if ok {
		callback(key)
	}
}

// Physical                Logical
// ================        =================
// | 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
// | q | w | e | r |       | 4 | 5 | 6 | D |
// | a | s | d | f |  <=>  | 7 | 8 | 9 | E |
// | z | x | c | v |       | A | 0 | B | F |
// ================        =================
var keypadLayout = map[sdl.Scancode]vm.Key{
	sdl.SCANCODE_X: vm.Key0,
	sdl.SCANCODE_1: vm.Key1,
	sdl.SCANCODE_2: vm.Key2,
	sdl.SCANCODE_3: vm.Key3,
	sdl.SCANCODE_Q: vm.Key4,
	sdl.SCANCODE_W: vm.Key5,
	sdl.SCANCODE_E: vm.Key6,
	sdl.SCANCODE_A: vm.Key7,
	sdl.SCANCODE_S: vm.Key8,
	sdl.SCANCODE_D: vm.Key9,
	sdl.SCANCODE_Z: vm.KeyA,
	sdl.SCANCODE_C: vm.KeyB,
	sdl.SCANCODE_4: vm.KeyC,
	sdl.SCANCODE_R: vm.KeyD,
	sdl.SCANCODE_F: vm.KeyE,
	sdl.SCANCODE_V: vm.KeyF,
}

func keyMap(code sdl.Scancode) (vm.Key, bool) {
	key, ok := keypadLayout[code]
	return key, ok
}

func (hal *HAL) Draw(frame *vm.Frame) error {
	fillBackBuffer(hal.backBuffer, frame, hal.fgColor, hal.bgColor)

	backBufferPtr := unsafe.Pointer(&hal.backBuffer[0])
	if err := hal.texture.Update(nil, backBufferPtr, hal.backBufferPitch); err != nil {
		return fmt.Errorf("failed to update sdl texture: %w", err)
	}

	if err := hal.renderer.Clear(); err != nil {
		return fmt.Errorf("failed to clear sdl renderer: %w", err)
	}

	if err := hal.renderer.Copy(hal.texture, nil, nil); err != nil {
		return fmt.Errorf("failed to copy sdl texture to renderer: %w", err)
	}

	hal.renderer.Present()
	return nil
}

func fillBackBuffer(dst []uint32, frame *vm.Frame, fgColor, bgColor uint32) {
	for i, pixel := range frame {
		color := bgColor
		if pixel != 0 {
			color = fgColor
		}

		dst[i] = 0xFF000000 | color
	}
}

func (hal *HAL) Beep(active bool) error {
	if hal.tone != nil {
		hal.tone.SetActive(active)
	}
	return nil
}

// WaitForNextFrame paces the loop at 60 frames per second. A late frame
// resets the schedule instead of bursting to catch up.
func (hal *HAL) WaitForNextFrame() error {
	now := time.Now()
	if hal.nextFrame.IsZero() || now.Sub(hal.nextFrame) > frameDuration {
		hal.nextFrame = now
	}

	hal.nextFrame = hal.nextFrame.Add(frameDuration)
	time.Sleep(time.Until(hal.nextFrame))
	return nil
}

// WaitForQuit keeps the last frame on screen until the window is closed or
// a reboot is requested.
func (hal *HAL) WaitForQuit(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
			switch e.GetType() {
			case sdl.QUIT:
				return ErrQuit
			case sdl.KEYDOWN:
				if e.(*sdl.KeyboardEvent).Keysym.Scancode == sdl.SCANCODE_BACKSPACE {
					return ErrReboot
				}
			}
		}

		if err := hal.WaitForNextFrame(); err != nil {
			return err
		}
	}
}
