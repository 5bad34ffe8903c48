package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func samples(p []byte) []float32 {
	out := make([]float32, len(p)/bytesPerSample)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*bytesPerSample:]))
	}
	return out
}

func TestSquareWave_SilentWhenInactive(t *testing.T) {
	w := newSquareWave(8, 1, 0.5)
	p := make([]byte, 16*bytesPerSample)
	for i := range p {
		p[i] = 0xFF
	}

	n, err := w.Read(p)
	assert.NoError(t, err)
	assert.Equal(t, len(p), n)

	for _, s := range samples(p) {
		assert.Equal(t, float32(0), s)
	}
}

func TestSquareWave_Period(t *testing.T) {
	// 2 Hz at 8 samples per second: 2 high, 2 low, repeating
	w := newSquareWave(8, 2, 0.25)
	w.active.Store(true)

	p := make([]byte, 8*bytesPerSample)
	_, err := w.Read(p)
	assert.NoError(t, err)

	expected := []float32{0.25, 0.25, -0.25, -0.25, 0.25, 0.25, -0.25, -0.25}
	got := samples(p)
	assert.Len(t, got, len(expected))
	for i := range expected {
		assert.Equal(t, expected[i], got[i])
	}
}

func TestSquareWave_PhaseContinuesAcrossReads(t *testing.T) {
	w := newSquareWave(8, 2, 1)
	w.active.Store(true)

	p := make([]byte, 3*bytesPerSample)
	_, err := w.Read(p)
	assert.NoError(t, err)
	assert.Equal(t, float32(-1), samples(p)[2])

	_, err = w.Read(p)
	assert.NoError(t, err)
	got := samples(p)
	assert.Equal(t, float32(-1), got[0])
	assert.Equal(t, float32(1), got[1])
}

func TestSquareWave_PartialSampleZeroed(t *testing.T) {
	w := newSquareWave(8, 2, 1)
	w.active.Store(true)

	p := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	n, err := w.Read(p)
	assert.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, byte(0), p[4])
	assert.Equal(t, byte(0), p[5])
}
