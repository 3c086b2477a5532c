// Package audio renders the audio haunting as layered beep streamers mixed
// into one output stream.
package audio

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"necroos/internal/app/ports"
	"necroos/internal/domain/haunting"
)

const DefaultSampleRate = beep.SampleRate(44100)

type layer struct {
	ctrl   *beep.Ctrl
	volume *effects.Volume
}

// Layers is an effect collaborator whose continuous effects become looping
// mixer layers. It is also a beep.Streamer; a host plays it on a speaker or
// renders it elsewhere.
type Layers struct {
	mu     sync.Mutex
	sr     beep.SampleRate
	mixer  *beep.Mixer
	layers map[string]*layer
	seed   uint64
}

func NewLayers(sr beep.SampleRate) *Layers {
	if sr <= 0 {
		sr = DefaultSampleRate
	}
	return &Layers{sr: sr, mixer: &beep.Mixer{}, layers: map[string]*layer{}}
}

func (l *Layers) SampleRate() beep.SampleRate { return l.sr }

// Start adds the layer for effectID, or updates its volume when it already
// plays.
func (l *Layers) Start(effectID string, params ports.EffectParams) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	vol := floatParam(params, "volume", haunting.AudioBaseVolume)
	if existing, ok := l.layers[effectID]; ok {
		setVolume(existing.volume, vol)
		return nil
	}
	src, err := l.source(effectID, params)
	if err != nil {
		return err
	}
	v := newVolume(src, vol)
	ctrl := &beep.Ctrl{Streamer: v}
	l.layers[effectID] = &layer{ctrl: ctrl, volume: v}
	l.mixer.Add(ctrl)
	log.Printf("[audio] layer started: %s (volume %.2f)", effectID, vol)
	return nil
}

// Stop detaches the layer; the mixer drops it on its next pass.
func (l *Layers) Stop(effectID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, ok := l.layers[effectID]
	if !ok {
		return nil
	}
	existing.ctrl.Streamer = nil
	delete(l.layers, effectID)
	log.Printf("[audio] layer stopped: %s", effectID)
	return nil
}

// TriggerOnce plays a short sting built from the same source as effectID.
func (l *Layers) TriggerOnce(effectID string, params ports.EffectParams) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	src, err := l.source(effectID, params)
	if err != nil {
		return err
	}
	l.mixer.Add(beep.Take(l.sr.N(1500*time.Millisecond), newVolume(src, floatParam(params, "volume", haunting.AudioBaseVolume))))
	return nil
}

// Active lists the playing layers.
func (l *Layers) Active() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.layers))
	for id := range l.layers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (l *Layers) Stream(samples [][2]float64) (n int, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mixer.Stream(samples)
}

func (l *Layers) Err() error { return nil }

func (l *Layers) source(effectID string, params ports.EffectParams) (beep.Streamer, error) {
	l.seed++
	switch effectID {
	case haunting.EffectFootsteps:
		return newPulse(l.sr, 55, 0.6, 0), nil
	case haunting.EffectStatic:
		return newNoise(l.sr, 2.5, 0.2, 0.4, l.seed), nil
	case haunting.EffectWhispers:
		return newWhisper(l.sr, l.seed), nil
	case haunting.EffectHeartbeat:
		bpm := floatParam(params, "bpm", haunting.HeartbeatBPM)
		if bpm <= 0 {
			bpm = haunting.HeartbeatBPM
		}
		return newPulse(l.sr, 45, 60/bpm, 0.25), nil
	}
	return nil, fmt.Errorf("audio: no source for effect %q", effectID)
}

func floatParam(params ports.EffectParams, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return fallback
}

// Render pulls d of mixed audio and encodes it as interleaved 16-bit
// little-endian stereo PCM.
func (l *Layers) Render(d time.Duration) []byte {
	buf := make([][2]float64, l.sr.N(d))
	l.Stream(buf)
	out := make([]byte, 0, len(buf)*4)
	for _, s := range buf {
		for _, ch := range s {
			v := int16(math.Max(-1, math.Min(1, ch)) * math.MaxInt16)
			out = binary.LittleEndian.AppendUint16(out, uint16(v))
		}
	}
	return out
}
