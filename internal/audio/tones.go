package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
)

type wave int

const (
	waveSine wave = iota
	waveSquare
	waveNoise
)

// tone describes how one cue sounds. Sweep moves the pitch linearly to
// Freq+Sweep over the tone's length.
type tone struct {
	Freq     float64
	Sweep    float64
	Duration time.Duration
	Wave     wave
	Volume   float64
}

var cueTones = map[string]tone{
	"beep2":          {Freq: 880, Duration: 60 * time.Millisecond, Wave: waveSine, Volume: 0.25},
	"beep4":          {Freq: 440, Duration: 120 * time.Millisecond, Wave: waveSquare, Volume: 0.15},
	"beep6":          {Freq: 660, Sweep: 220, Duration: 100 * time.Millisecond, Wave: waveSine, Volume: 0.25},
	"structureError": {Freq: 120, Duration: 150 * time.Millisecond, Wave: waveSquare, Volume: 0.2},
	"structureDone":  {Freq: 330, Sweep: 330, Duration: 250 * time.Millisecond, Wave: waveSine, Volume: 0.25},
	"dump":           {Freq: 90, Duration: 200 * time.Millisecond, Wave: waveNoise, Volume: 0.2},
	"laser":          {Freq: 1400, Sweep: -900, Duration: 90 * time.Millisecond, Wave: waveSquare, Volume: 0.12},
	"explode":        {Freq: 60, Duration: 400 * time.Millisecond, Wave: waveNoise, Volume: 0.35},
	"selfDestruct":   {Freq: 45, Duration: 600 * time.Millisecond, Wave: waveNoise, Volume: 0.4},
}

var defaultTone = tone{Freq: 520, Duration: 50 * time.Millisecond, Wave: waveSine, Volume: 0.2}

// generator streams a tone with a short linear attack and release.
type generator struct {
	sr    beep.SampleRate
	t     tone
	pos   int
	total int
	noise uint32
}

func newGenerator(sr beep.SampleRate, t tone) *generator {
	return &generator{sr: sr, t: t, total: sr.N(t.Duration), noise: 0x9e3779b9}
}

func (g *generator) Stream(samples [][2]float64) (n int, ok bool) {
	if g.pos >= g.total {
		return 0, false
	}
	for i := range samples {
		if g.pos >= g.total {
			return i, true
		}
		progress := float64(g.pos) / float64(g.total)
		secs := float64(g.pos) / float64(g.sr)
		freq := g.t.Freq + g.t.Sweep*progress/2

		var s float64
		switch g.t.Wave {
		case waveSquare:
			if math.Sin(2*math.Pi*freq*secs) >= 0 {
				s = 1
			} else {
				s = -1
			}
		case waveNoise:
			// xorshift
			g.noise ^= g.noise << 13
			g.noise ^= g.noise >> 17
			g.noise ^= g.noise << 5
			s = float64(g.noise)/float64(math.MaxUint32)*2 - 1
			s *= 0.5 + 0.5*math.Sin(2*math.Pi*freq*secs)
		default:
			s = math.Sin(2 * math.Pi * freq * secs)
		}

		env := math.Min(1, math.Min(progress/0.05, (1-progress)/0.2))
		s *= env * g.t.Volume

		samples[i][0] = s
		samples[i][1] = s
		g.pos++
	}
	return len(samples), true
}

func (g *generator) Err() error { return nil }
