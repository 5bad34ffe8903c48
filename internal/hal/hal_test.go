package hal

import (
	"testing"

	"github.com/kapitanov/cosmac8/internal/vm"
	"github.com/retroenv/retrogolib/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestKeyMap(t *testing.T) {
	assert.Len(t, keypadLayout, vm.KeyCount)

	seen := map[vm.Key]bool{}
	for _, key := range keypadLayout {
		seen[key] = true
	}
	assert.Len(t, seen, vm.KeyCount)

	key, ok := keyMap(sdl.SCANCODE_X)
	assert.True(t, ok)
	assert.Equal(t, vm.Key0, key)

	key, ok = keyMap(sdl.SCANCODE_V)
	assert.True(t, ok)
	assert.Equal(t, vm.KeyF, key)

	_, ok = keyMap(sdl.SCANCODE_P)
	assert.False(t, ok)
}

func TestFillBackBuffer(t *testing.T) {
	var frame vm.Frame
	frame[0] = 1
	frame[len(frame)-1] = 1

	dst := make([]uint32, len(frame))
	fillBackBuffer(dst, &frame, 0xbea700, 0x000000)

	assert.Equal(t, uint32(0xFFbea700), dst[0])
	assert.Equal(t, uint32(0xFF000000), dst[1])
	assert.Equal(t, uint32(0xFFbea700), dst[len(dst)-1])
}
