// Package stream plays a decoded MIDI file against a wall clock, or records
// timestamped events into one, converting between ticks and milliseconds
// under the tempo in force.
//
// A Stream holds a single tempo anchor and is strictly forward-consuming:
// ticks and timestamps passed to it must not go backwards. It does no
// locking and never blocks; callers drive it from a timer.
package stream

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/GregorR/midifile/smf"
)

var (
	ErrNotStarted   = errors.New("stream: not started")
	ErrClosed       = errors.New("stream: closed")
	ErrZeroDivision = errors.New("stream: time division is zero")
	ErrSMPTETiming  = errors.New("stream: SMPTE time division is not supported")
	ErrZeroTempo    = errors.New("stream: tempo must be positive")
	ErrOutOfOrder   = errors.New("stream: event is earlier than the end of its track")
	ErrBadTrack     = errors.New("stream: invalid track index")
)

// TrackEvent is an event handed to the caller together with the index of the
// track it came from. The caller owns Event.
type TrackEvent struct {
	Track int
	Event *smf.Event
}

type options struct {
	clock Clock
	alloc smf.Allocator
}

type Option func(*options)

// WithClock sets the clock Poll and Read use for "now". The default is a
// SystemClock created by Open.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithAllocator sets the allocator that events swallowed by ReadNormal are
// released to.
func WithAllocator(a smf.Allocator) Option {
	return func(o *options) {
		o.alloc = a
	}
}

type Stream struct {
	file    *smf.File
	div     uint64 // ticks per quarter note
	anchor  anchor
	started bool
	clock   Clock
	alloc   smf.Allocator
}

// Open wraps f in a stream. The stream owns f until Close hands it back.
func Open(f *smf.File, opts ...Option) (*Stream, error) {
	if f.TimeDivision == 0 {
		return nil, ErrZeroDivision
	}
	if f.TimeDivision&0x8000 != 0 {
		return nil, fmt.Errorf("%w: division %#04x", ErrSMPTETiming, f.TimeDivision)
	}
	o := options{alloc: smf.HeapAllocator{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = NewSystemClock()
	}
	return &Stream{file: f, div: uint64(f.TimeDivision), clock: o.clock, alloc: o.alloc}, nil
}

// Start begins the stream at timestamp ts with the default tempo.
func (s *Stream) Start(ts int64) error {
	if s.file == nil {
		return ErrClosed
	}
	s.anchor = anchor{ts: ts, tempo: DefaultTempo}
	s.started = true
	return nil
}

func (s *Stream) checkRunning() error {
	if s.file == nil {
		return ErrClosed
	}
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// File returns the stream's file without giving up ownership.
func (s *Stream) File() *smf.File {
	return s.file
}

// Now is the stream clock's current time.
func (s *Stream) Now() int64 {
	return s.clock.Now()
}

// Poll reports whether any track has an event due at the current time.
func (s *Stream) Poll() (bool, error) {
	if err := s.checkRunning(); err != nil {
		return false, err
	}
	cur := s.TickAt(s.clock.Now())
	for _, t := range s.file.Tracks() {
		if head := t.Front(); head != nil && head.AbsoluteTm <= cur {
			return true, nil
		}
	}
	return false, nil
}

// Empty reports whether every track has been drained.
func (s *Stream) Empty() bool {
	if s.file == nil {
		return true
	}
	for _, t := range s.file.Tracks() {
		if t.Len() > 0 {
			return false
		}
	}
	return true
}

// Read takes at most limit due events, at most one per track, in track order.
// Each is stamped with the millisecond timestamp of its tick. Ownership of
// the returned events passes to the caller.
func (s *Stream) Read(limit int) ([]TrackEvent, error) {
	if err := s.checkRunning(); err != nil {
		return nil, err
	}
	return s.read(limit, s.TickAt(s.clock.Now())), nil
}

func (s *Stream) read(limit int, cur uint32) []TrackEvent {
	var out []TrackEvent
	for i, t := range s.file.Tracks() {
		if len(out) >= limit {
			break
		}
		head := t.Front()
		if head == nil || head.AbsoluteTm > cur {
			continue
		}
		ev := t.PopFront()
		ev.Timestamp, _ = s.TimestampAt(ev.AbsoluteTm)
		out = append(out, TrackEvent{Track: i, Event: ev})
	}
	return out
}

// ReadNormal is Read for playback: SysEx and Meta events are consumed by the
// stream instead of returned, and tempo events update the tempo anchor, so
// the caller only sees channel messages.
func (s *Stream) ReadNormal(limit int) ([]TrackEvent, error) {
	if err := s.checkRunning(); err != nil {
		return nil, err
	}
	var out []TrackEvent
	for len(out) < limit {
		// a tempo change moves the current tick, so recompute it each time
		got := s.read(1, s.TickAt(s.clock.Now()))
		if len(got) == 0 {
			break
		}
		te := got[0]
		if te.Event.Meta == nil {
			out = append(out, te)
			continue
		}
		if tempo, ok := te.Event.Meta.Tempo(); ok && tempo > 0 {
			if _, err := s.SetTempoAtTick(te.Event.AbsoluteTm, tempo); err != nil {
				return out, err
			}
		}
		s.alloc.Free(te.Event)
	}
	return out, nil
}

// Write appends events to a track, creating tracks up to index track as
// needed. The stream takes ownership of the events.
func (s *Stream) Write(track int, events ...*smf.Event) error {
	for _, ev := range events {
		if err := s.WriteOne(track, ev); err != nil {
			return err
		}
	}
	return nil
}

// WriteOne appends one event. If its DeltaTm is zero the delta is derived:
// from AbsoluteTm when set, otherwise from Timestamp converted to ticks.
func (s *Stream) WriteOne(track int, ev *smf.Event) error {
	if s.file == nil {
		return ErrClosed
	}
	if track < 0 || track > 0xFFFE {
		return fmt.Errorf("%w: %d", ErrBadTrack, track)
	}
	for s.file.NumTracks() <= track {
		s.file.NewTrack()
	}
	t := s.file.Track(track)

	if ev.DeltaTm == 0 {
		if ev.AbsoluteTm == 0 && ev.Timestamp != 0 {
			if err := s.checkRunning(); err != nil {
				return err
			}
			ev.AbsoluteTm = s.TickAt(ev.Timestamp)
		}
		if ev.AbsoluteTm != 0 {
			var last uint32
			if tail := t.Back(); tail != nil {
				last = tail.AbsoluteTm
			}
			if ev.AbsoluteTm < last {
				return fmt.Errorf("%w: tick %d before %d on track %d", ErrOutOfOrder, ev.AbsoluteTm, last, track)
			}
			ev.DeltaTm = ev.AbsoluteTm - last
		}
	}
	t.PushBack(ev)
	return nil
}

// Close ends every track with an end-of-track event if it lacks one, sets
// the file format from the track count, and returns the file. The stream
// cannot be used afterwards.
func (s *Stream) Close() *smf.File {
	f := s.file
	if f == nil {
		return nil
	}
	s.file = nil
	s.started = false

	for _, t := range f.Tracks() {
		finalizeTrack(t)
	}
	if f.NumTracks() > 1 {
		f.Format = 1
	} else {
		f.Format = 0
	}
	logrus.WithFields(logrus.Fields{"tracks": f.NumTracks(), "format": f.Format}).Debug("stream closed")
	return f
}

func finalizeTrack(t *smf.Track) {
	if tail := t.Back(); tail != nil && tail.IsEndOfTrack() {
		return
	}
	t.PushBack(smf.NewEndOfTrackEvent(0))
}
