package speech

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// ErrStopped is returned by Play when Stop interrupted playback.
var ErrStopped = errors.New("playback stopped")

// DefaultReleaseGrace is how long a paused or finished stream is kept
// before its device handle is released.
const DefaultReleaseGrace = 150 * time.Millisecond

// stream is the part of *oto.Player the Player drives.
type stream interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// Player plays WAV or raw PCM audio via oto. At most one stream is
// active; starting a new one stops the previous.
type Player struct {
	newStream func(r io.Reader) stream
	grace     time.Duration
	log       *logger.Logger

	mu     sync.Mutex
	active stream
}

// NewPlayer initializes the system audio context. Returns an error if the
// audio device is unavailable.
func NewPlayer(grace time.Duration, log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   PlaybackRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	octx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	log.Debug("audio player initialized (rate=%d, channels=%d)", PlaybackRate, ChannelCount)
	return newPlayer(func(r io.Reader) stream { return octx.NewPlayer(r) }, grace, log), nil
}

func newPlayer(factory func(io.Reader) stream, grace time.Duration, log *logger.Logger) *Player {
	if grace <= 0 {
		grace = DefaultReleaseGrace
	}
	return &Player{newStream: factory, grace: grace, log: log}
}

// Play blocks until the audio finishes, Stop is called, or ctx ends.
func (p *Player) Play(ctx context.Context, audio []byte) error {
	pcm, err := decodePCM(audio)
	if err != nil {
		return err
	}

	p.Stop()

	s := p.newStream(bytes.NewReader(pcm))
	p.mu.Lock()
	p.active = s
	p.mu.Unlock()

	s.Play()
	p.log.Debug("audio player: playing %d bytes of PCM", len(pcm))

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for s.IsPlaying() {
		select {
		case <-ctx.Done():
			p.Stop()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	p.mu.Lock()
	finished := p.active == s
	if finished {
		p.active = nil
	}
	p.mu.Unlock()

	if !finished {
		return ErrStopped
	}
	p.release(s)
	return nil
}

// Stop pauses the active stream, if any, and schedules its release. Safe
// to call concurrently and when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	s := p.active
	p.active = nil
	p.mu.Unlock()

	if s == nil {
		return
	}
	s.Pause()
	p.log.Debug("audio player: interrupted")
	p.release(s)
}

// Playing reports whether a stream is active.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

// release closes s once the grace window has passed.
func (p *Player) release(s stream) {
	time.AfterFunc(p.grace, func() {
		if err := s.Close(); err != nil {
			p.log.Debug("audio player: release failed: %v", err)
		}
	})
}
