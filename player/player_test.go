package player

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/GregorR/midifile/smf"
	"github.com/GregorR/midifile/stream"
)

type fakeSink struct {
	mu   sync.Mutex
	msgs []gomidi.Message
	err  error
}

func (s *fakeSink) Send(msg gomidi.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *fakeSink) sent() []gomidi.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gomidi.Message(nil), s.msgs...)
}

// twoNotes is a quarter note at 120 BPM on channel 0 followed by a tempo
// change and a second note a quarter later at the new tempo.
func twoNotes() *smf.File {
	f := smf.NewFile(480)
	t := f.NewTrack()
	t.PushBack(smf.NewTextEvent(0, smf.MetaTrackName, "piano"))
	t.PushBack(smf.NewNoteOn(0, 0, 60, 100))
	t.PushBack(smf.NewNoteOff(480, 0, 60, 0))
	t.PushBack(smf.NewTempoEvent(0, 1000000))
	t.PushBack(smf.NewNoteOn(0, 0, 62, 100))
	t.PushBack(smf.NewNoteOff(480, 0, 62, 0))
	t.PushBack(smf.NewEndOfTrackEvent(0))
	return f
}

func TestStepWaitsForReady(t *testing.T) {
	var now int64
	s, err := stream.Open(twoNotes(), stream.WithClock(stream.ClockFunc(func() int64 { return now })))
	require.NoError(t, err)
	sink := &fakeSink{}
	p := New(s, sink)

	done, err := p.Step()
	require.NoError(t, err)
	require.False(t, done)
	require.Empty(t, sink.sent())

	require.NoError(t, p.Start())
	p.MarkReady()

	done, err = p.Step()
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, []gomidi.Message{gomidi.NoteOn(0, 60, 100)}, sink.sent())

	now = 499
	_, err = p.Step()
	require.NoError(t, err)
	require.Len(t, sink.sent(), 1)

	now = 500
	_, err = p.Step()
	require.NoError(t, err)
	require.Len(t, sink.sent(), 3)
	require.Equal(t, uint32(1000000), s.Tempo())

	now = 1499
	done, err = p.Step()
	require.NoError(t, err)
	require.False(t, done)
	require.Len(t, sink.sent(), 3)

	now = 1500
	done, err = p.Step()
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, []gomidi.Message{
		gomidi.NoteOn(0, 60, 100),
		gomidi.NoteOff(0, 60),
		gomidi.NoteOn(0, 62, 100),
		gomidi.NoteOff(0, 62),
	}, sink.sent())
	require.Equal(t, 4, p.Sent())
}

func TestStepBatches(t *testing.T) {
	f := smf.NewFile(96)
	tr := f.NewTrack()
	for key := uint8(40); key < 80; key++ {
		tr.PushBack(smf.NewNoteOn(0, 1, key, 64))
	}
	s, err := stream.Open(f, stream.WithClock(stream.ClockFunc(func() int64 { return 0 })))
	require.NoError(t, err)
	sink := &fakeSink{}
	p := New(s, sink, WithBatch(3))
	require.NoError(t, p.Start())

	done, err := p.Step()
	require.NoError(t, err)
	require.True(t, done)
	require.Len(t, sink.sent(), 40)
}

func TestSinkErrorsAreNotFatal(t *testing.T) {
	var now int64
	s, err := stream.Open(twoNotes(), stream.WithClock(stream.ClockFunc(func() int64 { return now })))
	require.NoError(t, err)
	p := New(s, &fakeSink{err: errors.New("unplugged")})
	require.NoError(t, p.Start())
	now = 10000

	done, err := p.Step()
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, 0, p.Sent())
}

func TestRunDrainsAndCloses(t *testing.T) {
	f := smf.NewFile(960)
	conductor := f.NewTrack()
	conductor.PushBack(smf.NewTempoEvent(0, 100000))
	conductor.PushBack(smf.NewEndOfTrackEvent(0))
	lead := f.NewTrack()
	lead.PushBack(smf.NewNoteOn(0, 2, 70, 90))
	lead.PushBack(smf.NewNoteOff(96, 2, 70, 0))
	lead.PushBack(smf.NewEndOfTrackEvent(0))

	buf := &bytes.Buffer{}
	require.NoError(t, smf.Encode(buf, f))
	budget := &smf.BudgetAllocator{}
	f, err := smf.Decode(buf, smf.WithAllocator(budget))
	require.NoError(t, err)

	s, err := stream.Open(f, stream.WithAllocator(budget))
	require.NoError(t, err)
	sink := &fakeSink{}
	p := New(s, sink, WithAllocator(budget), WithInterval(time.Millisecond))
	require.NoError(t, p.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := p.Run(ctx)
	require.NoError(t, err)
	require.Same(t, f, out)
	require.Equal(t, uint16(1), out.Format)
	require.Len(t, sink.sent(), 2)

	live, payload := budget.InUse()
	require.Equal(t, int64(0), live)
	require.Equal(t, int64(0), payload)

	_, err = s.Read(1)
	require.ErrorIs(t, err, stream.ErrClosed)
}

func TestRunStopsWithContext(t *testing.T) {
	s, err := stream.Open(twoNotes())
	require.NoError(t, err)
	p := New(s, &fakeSink{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, s.File())
}
