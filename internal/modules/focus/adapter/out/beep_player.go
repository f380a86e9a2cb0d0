package out

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// BeepPlayer plays WAV resources from an embedded filesystem. Decoded
// sounds are buffered; the speaker is initialised on first play with the
// sample rate of that sound.
type BeepPlayer struct {
	sounds fs.FS
	dir    string
	volume float64

	mu          sync.Mutex
	buffers     map[string]*beep.Buffer
	speakerRate beep.SampleRate
}

func NewBeepPlayer(sounds fs.FS, dir string, volume float64) *BeepPlayer {
	return &BeepPlayer{
		sounds:  sounds,
		dir:     dir,
		volume:  volume,
		buffers: map[string]*beep.Buffer{},
	}
}

func (p *BeepPlayer) Play(_ context.Context, resource string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	buffer, err := p.bufferLocked(resource)
	if err != nil {
		return err
	}
	if p.speakerRate == 0 {
		rate := buffer.Format().SampleRate
		if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
			return fmt.Errorf("init speaker: %w", err)
		}
		p.speakerRate = rate
	}

	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())
	if rate := buffer.Format().SampleRate; rate != p.speakerRate {
		streamer = beep.Resample(4, rate, p.speakerRate, streamer)
	}
	speaker.Play(&effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   p.volume,
		Silent:   false,
	})
	return nil
}

func (p *BeepPlayer) bufferLocked(resource string) (*beep.Buffer, error) {
	if buffer, ok := p.buffers[resource]; ok {
		return buffer, nil
	}
	file, err := p.sounds.Open(path.Join(p.dir, resource))
	if err != nil {
		return nil, fmt.Errorf("open sound %s: %w", resource, err)
	}
	defer file.Close()

	streamer, format, err := wav.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode sound %s: %w", resource, err)
	}
	defer streamer.Close()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	p.buffers[resource] = buffer
	return buffer, nil
}

// NopSoundPlayer is used when sound is disabled.
type NopSoundPlayer struct{}

func (NopSoundPlayer) Play(context.Context, string) error { return nil }
