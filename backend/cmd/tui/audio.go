package main

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate   = beep.SampleRate(44100)
	cueDuration  = 60 * time.Millisecond
	baseCueFreq  = 440.0
	cueFreqRatio = 1.122 // целый тон
)

// Cue проигрывает короткий тон при смене активного тела. Высота тона
// растет с номером тела.
type Cue struct {
	mu      sync.Mutex
	enabled bool
	muted   bool
}

// Init открывает звуковое устройство. Без него просмотрщик работает молча.
func (c *Cue) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	c.enabled = true
	return nil
}

// ToggleMute включает и выключает звук
func (c *Cue) ToggleMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = !c.muted
	return c.muted
}

// Play проигрывает тон для тела с номером index
func (c *Cue) Play(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || c.muted {
		return
	}

	freq := baseCueFreq
	for i := 0; i < index%12; i++ {
		freq *= cueFreqRatio
	}
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(cueDuration), sine))
}

// Close освобождает звуковое устройство
func (c *Cue) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		speaker.Close()
		c.enabled = false
	}
}
