// Package audio plays the buzzer tone while the sound timer runs.
package audio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	SampleRate = 44100

	bytesPerSample = 4 // mono float32
	bufferSize     = 50 * time.Millisecond
)

// Tone is a square-wave buzzer on an oto output stream. The stream always
// plays; SetActive gates it between the wave and silence.
type Tone struct {
	ctx    *oto.Context
	player *oto.Player
	wave   *squareWave

	mutex sync.Mutex // Only for setup/control operations
}

func New(frequency, volume float64) (*Tone, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}
	<-ready
	slog.Debug("audio: create context", "rate", SampleRate)

	wave := newSquareWave(SampleRate, frequency, volume)
	player := ctx.NewPlayer(wave)
	player.Play()

	return &Tone{
		ctx:    ctx,
		player: player,
		wave:   wave,
	}, nil
}

func (t *Tone) SetActive(active bool) {
	t.wave.active.Store(active)
}

func (t *Tone) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.player == nil {
		return nil
	}

	t.wave.active.Store(false)
	err := t.player.Close()
	t.player = nil
	return err
}

// squareWave is the io.Reader feeding the player. Read runs on the audio
// thread, so the gate is atomic and the phase is only touched there.
type squareWave struct {
	active atomic.Bool

	phase  float64 // position within the current period, in [0, 1)
	step   float64 // period fraction advanced per sample
	volume float32
}

func newSquareWave(sampleRate int, frequency, volume float64) *squareWave {
	return &squareWave{
		step:   frequency / float64(sampleRate),
		volume: float32(volume),
	}
}

func (w *squareWave) Read(p []byte) (int, error) {
	n := len(p) / bytesPerSample * bytesPerSample
	active := w.active.Load()

	for i := 0; i < n; i += bytesPerSample {
		var sample float32
		if active {
			sample = w.volume
			if w.phase >= 0.5 {
				sample = -w.volume
			}
		}

		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(sample))

		w.phase += w.step
		if w.phase >= 1 {
			w.phase -= math.Floor(w.phase)
		}
	}

	clear(p[n:])
	return len(p), nil
}
