package vm

// Frame is a read-only snapshot of the display, one byte per pixel (0 or 1),
// row-major with ScreenWidth pixels per row.
type Frame [ScreenWidth * ScreenHeight]uint8

// Pixel reports whether the pixel at (x, y) is lit.
func (f *Frame) Pixel(x, y int) bool {
	return f[getScreenAddr(uint16(x), uint16(y))] != 0
}

// Display is the monochrome 64x32 pixel buffer.
type Display struct {
	gfx   Frame
	dirty bool
}

func (d *Display) Clear() {
	d.gfx = Frame{}
	d.dirty = true
}

// DrawSprite XORs sprite rows onto the display at (x, y). Coordinates wrap
// around both edges. It reports whether any lit pixel was turned off.
func (d *Display) DrawSprite(x, y uint8, sprite []uint8) bool {
	const width = uint16(8)

	collision := false
	for row, bits := range sprite {
		for col := uint16(0); col < width; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}

			addr := getScreenAddr(uint16(x)+col, uint16(y)+uint16(row))
			if d.gfx[addr] != 0 {
				collision = true
			}
			d.gfx[addr] ^= 1
		}
	}

	d.dirty = true
	return collision
}

// Snapshot returns a copy of the current pixels.
func (d *Display) Snapshot() Frame {
	return d.gfx
}

func getScreenAddr(x, y uint16) uint16 {
	x %= ScreenWidth
	y %= ScreenHeight

	return ScreenWidth*y + x
}
