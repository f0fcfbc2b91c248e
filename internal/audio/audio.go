// Package audio plays the simulation's sound cues. The world hands cues over
// without waiting; a single goroutine turns them into generated tones on a
// beep mixer. Speaker output is optional so servers and tests run silent.
package audio

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

type Options struct {
	// Speaker opens the default audio device. Without it cues are mixed
	// but never pulled.
	Speaker bool
	// Buffer bounds cues waiting to be mixed; further cues are dropped.
	Buffer int
	Logger *log.Logger
}

type Player struct {
	cues    chan string
	speaker bool
	logger  *log.Logger

	mu    sync.Mutex
	mixer *beep.Mixer

	played  atomic.Uint64
	dropped atomic.Uint64
}

func New(opts Options) (*Player, error) {
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	p := &Player{
		cues:    make(chan string, opts.Buffer),
		speaker: opts.Speaker,
		logger:  opts.Logger,
		mixer:   &beep.Mixer{},
	}
	if opts.Speaker {
		if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
			return nil, err
		}
		speaker.Play(p.mixer)
	}
	return p, nil
}

// Play queues cue and returns immediately.
func (p *Player) Play(cue string) {
	select {
	case p.cues <- cue:
	default:
		p.dropped.Add(1)
	}
}

// Run mixes queued cues until ctx is done.
func (p *Player) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.clear()
			return
		case cue := <-p.cues:
			p.mix(cue)
		}
	}
}

func (p *Player) mix(cue string) {
	t, ok := cueTones[cue]
	if !ok {
		p.logger.Printf("unknown sound cue %q", cue)
		t = defaultTone
	}
	p.add(newGenerator(sampleRate, t))
	p.played.Add(1)
}

func (p *Player) add(s beep.Streamer) {
	if p.speaker {
		speaker.Lock()
		defer speaker.Unlock()
	} else {
		p.mu.Lock()
		defer p.mu.Unlock()
		// Nothing pulls a silent mixer; keep only what is still sounding.
		if p.mixer.Len() > 32 {
			p.mixer.Clear()
		}
	}
	p.mixer.Add(s)
}

func (p *Player) clear() {
	if p.speaker {
		speaker.Lock()
		p.mixer.Clear()
		speaker.Unlock()
		return
	}
	p.mu.Lock()
	p.mixer.Clear()
	p.mu.Unlock()
}

// Stats reports cues mixed and cues dropped because the buffer was full.
func (p *Player) Stats() (played, dropped uint64) {
	return p.played.Load(), p.dropped.Load()
}
