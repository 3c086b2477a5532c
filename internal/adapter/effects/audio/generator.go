package audio

import (
	"math"
	"math/rand/v2"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// pulseGenerator plays a decaying low sine thump once per period. A second
// thump at offset gives the heartbeat its lub-dub.
type pulseGenerator struct {
	sr     beep.SampleRate
	freq   float64
	period int
	offset int
	decay  float64
	pos    int
}

func newPulse(sr beep.SampleRate, freq float64, periodSeconds, offsetSeconds float64) *pulseGenerator {
	return &pulseGenerator{
		sr:     sr,
		freq:   freq,
		period: int(periodSeconds * float64(sr)),
		offset: int(offsetSeconds * float64(sr)),
		decay:  18,
	}
}

func (g *pulseGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		local := g.pos % g.period
		v := g.thump(local)
		if g.offset > 0 && local >= g.offset {
			v += 0.6 * g.thump(local-g.offset)
		}
		samples[i][0] = v
		samples[i][1] = v
		g.pos++
	}
	return len(samples), true
}

func (g *pulseGenerator) thump(sample int) float64 {
	t := float64(sample) / float64(g.sr)
	return math.Exp(-g.decay*t) * math.Sin(2*math.Pi*g.freq*t)
}

func (g *pulseGenerator) Err() error { return nil }

// noiseGenerator emits white noise in bursts. duty is the share of each
// period that is audible; 1 means continuous.
type noiseGenerator struct {
	rng    *rand.Rand
	period int
	duty   float64
	gain   float64
	pos    int
}

func newNoise(sr beep.SampleRate, periodSeconds, duty, gain float64, seed uint64) *noiseGenerator {
	return &noiseGenerator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		period: max(1, int(periodSeconds*float64(sr))),
		duty:   duty,
		gain:   gain,
	}
}

func (g *noiseGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		var v float64
		if float64(g.pos%g.period) < g.duty*float64(g.period) {
			v = g.gain * (g.rng.Float64()*2 - 1)
		}
		samples[i][0] = v
		samples[i][1] = v
		g.pos++
	}
	return len(samples), true
}

func (g *noiseGenerator) Err() error { return nil }

// whisperGenerator is amplitude-modulated noise drifting between channels.
type whisperGenerator struct {
	sr    beep.SampleRate
	noise *noiseGenerator
	pos   int
}

func newWhisper(sr beep.SampleRate, seed uint64) *whisperGenerator {
	return &whisperGenerator{sr: sr, noise: newNoise(sr, 1, 1, 0.25, seed)}
}

func (g *whisperGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	g.noise.Stream(samples)
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		env := 0.5 + 0.5*math.Sin(2*math.Pi*0.7*t)
		pan := 0.5 + 0.5*math.Sin(2*math.Pi*0.13*t)
		samples[i][0] *= env * (1 - pan)
		samples[i][1] *= env * pan
		g.pos++
	}
	return len(samples), true
}

func (g *whisperGenerator) Err() error { return nil }

// newVolume wraps s in a beep volume effect; zero or less is silent.
func newVolume(s beep.Streamer, v float64) *effects.Volume {
	ev := &effects.Volume{Streamer: s, Base: 2}
	setVolume(ev, v)
	return ev
}

func setVolume(ev *effects.Volume, v float64) {
	if v <= 0 {
		ev.Volume, ev.Silent = 0, true
		return
	}
	ev.Volume, ev.Silent = math.Log2(math.Min(v, 1)), false
}
