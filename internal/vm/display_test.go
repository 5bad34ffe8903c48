package vm

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDisplay_DrawSprite(t *testing.T) {
	var d Display

	collision := d.DrawSprite(0, 0, []uint8{0b1010_0000})
	assert.False(t, collision)

	frame := d.Snapshot()
	assert.True(t, frame.Pixel(0, 0))
	assert.False(t, frame.Pixel(1, 0))
	assert.True(t, frame.Pixel(2, 0))

	collision = d.DrawSprite(1, 0, []uint8{0b1100_0000})
	assert.True(t, collision)

	frame = d.Snapshot()
	assert.True(t, frame.Pixel(0, 0))
	assert.True(t, frame.Pixel(1, 0))
	assert.False(t, frame.Pixel(2, 0))
}

func TestDisplay_DrawSpriteWraps(t *testing.T) {
	var d Display

	d.DrawSprite(60, 31, []uint8{0xFF, 0x81})
	frame := d.Snapshot()

	for _, x := range []int{60, 61, 62, 63, 0, 1, 2, 3} {
		assert.True(t, frame.Pixel(x, 31))
	}
	assert.False(t, frame.Pixel(4, 31))
	assert.False(t, frame.Pixel(59, 31))

	// second row wraps to the top
	assert.True(t, frame.Pixel(60, 0))
	assert.True(t, frame.Pixel(3, 0))
	assert.False(t, frame.Pixel(61, 0))
}

func TestDisplay_DoubleDrawRestores(t *testing.T) {
	var d Display
	d.DrawSprite(10, 10, []uint8{0xFF, 0xFF})
	before := d.Snapshot()

	sprite := []uint8{0x3C, 0x42, 0x81, 0x81, 0x42, 0x3C}
	assert.False(t, d.DrawSprite(62, 29, sprite))
	assert.True(t, d.DrawSprite(62, 29, sprite))

	assert.Equal(t, before, d.Snapshot())
}

func TestDisplay_Clear(t *testing.T) {
	var d Display
	d.DrawSprite(5, 5, []uint8{0xFF})
	d.dirty = false

	d.Clear()
	assert.Equal(t, Frame{}, d.Snapshot())
	assert.True(t, d.dirty)
}

func TestKeypad(t *testing.T) {
	var k Keypad

	_, ok := k.FirstPressed()
	assert.False(t, ok)

	k.KeyDown(KeyB)
	k.KeyDown(Key5)
	k.KeyDown(Key(0x20))

	key, ok := k.FirstPressed()
	assert.True(t, ok)
	assert.Equal(t, Key5, key)
	assert.True(t, k.IsPressed(KeyB))
	assert.False(t, k.IsPressed(Key(0x20)))

	k.KeyUp(Key5)
	key, _ = k.FirstPressed()
	assert.Equal(t, KeyB, key)

	k.Release()
	assert.Equal(t, Keypad{}, k)
}
