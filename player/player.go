// Package player drives a stream in real time: it plays a file to a Sink
// from a ticker, or records timestamped input from a MIDI port.
package player

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GregorR/midifile/smf"
	"github.com/GregorR/midifile/stream"
)

const (
	DefaultInterval = time.Millisecond
	DefaultBatch    = 16
)

type Option func(*Player)

// WithInterval sets how often Run polls the stream. Default 1ms.
func WithInterval(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithBatch caps the events taken from the stream per tick. Default 16.
func WithBatch(n int) Option {
	return func(p *Player) {
		if n > 0 {
			p.batch = n
		}
	}
}

// WithAllocator sets where sent events are released. It should be the
// allocator the file was decoded with.
func WithAllocator(a smf.Allocator) Option {
	return func(p *Player) {
		p.alloc = a
	}
}

// Player sends the events of a stream to a sink as they fall due. Nothing is
// read until the player is marked ready.
type Player struct {
	stream *stream.Stream
	sink   Sink
	alloc  smf.Allocator

	interval time.Duration
	batch    int

	ready     chan struct{}
	readyOnce sync.Once
	sent      int
}

func New(s *stream.Stream, sink Sink, opts ...Option) *Player {
	p := &Player{
		stream:   s,
		sink:     sink,
		alloc:    smf.HeapAllocator{},
		interval: DefaultInterval,
		batch:    DefaultBatch,
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MarkReady opens the gate. Calling it more than once is harmless.
func (p *Player) MarkReady() {
	p.readyOnce.Do(func() {
		close(p.ready)
	})
}

// Start starts the stream at the current time and marks the player ready.
func (p *Player) Start() error {
	if err := p.stream.Start(p.stream.Now()); err != nil {
		return err
	}
	p.MarkReady()
	return nil
}

func (p *Player) isReady() bool {
	select {
	case <-p.ready:
		return true
	default:
		return false
	}
}

// Step sends every event that is due and reports whether the stream has run
// dry. It does nothing before the player is ready.
func (p *Player) Step() (bool, error) {
	if !p.isReady() {
		return false, nil
	}
	for {
		evs, err := p.stream.ReadNormal(p.batch)
		if err != nil {
			return false, err
		}
		for _, te := range evs {
			if msg := te.Event.MIDI(); msg != nil {
				if err := p.sink.Send(msg); err != nil {
					logrus.WithFields(logrus.Fields{
						"track": te.Track,
						"tick":  te.Event.AbsoluteTm,
						"msg":   msg.String(),
					}).WithError(err).Warn("send failed")
				} else {
					p.sent++
				}
			}
			p.alloc.Free(te.Event)
		}
		if len(evs) < p.batch {
			break
		}
	}
	return p.stream.Empty(), nil
}

// Sent is the number of messages the sink accepted.
func (p *Player) Sent() int {
	return p.sent
}

// Run calls Step on every tick until the stream is drained, then closes the
// stream and returns its file. It returns early with ctx's error.
func (p *Player) Run(ctx context.Context) (*smf.File, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	select {
	case <-p.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	logrus.WithField("interval", p.interval).Debug("playback started")

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			done, err := p.Step()
			if err != nil {
				return nil, err
			}
			if done {
				f := p.stream.Close()
				logrus.WithFields(logrus.Fields{"sent": p.sent, "tracks": f.NumTracks()}).Info("playback finished")
				return f, nil
			}
		}
	}
}
