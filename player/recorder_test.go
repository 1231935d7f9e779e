package player

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/GregorR/midifile/smf"
	"github.com/GregorR/midifile/stream"
)

func TestRecorderTimestamps(t *testing.T) {
	var now int64 = 2000
	s, err := stream.Open(smf.NewFile(480), stream.WithClock(stream.ClockFunc(func() int64 { return now })))
	require.NoError(t, err)
	require.NoError(t, s.Start(now))
	rec := NewRecorder(s, 0)

	require.NoError(t, rec.Record(gomidi.NoteOn(0, 60, 100)))
	now = 2500
	require.NoError(t, rec.Record(gomidi.NoteOff(0, 60)))
	now = 2750
	require.NoError(t, rec.Record(gomidi.ControlChange(0, 64, 0)))
	require.ErrorIs(t, rec.Record(gomidi.Message{0xF8}), smf.ErrInvalidEvent)
	require.Equal(t, 3, rec.Count())

	f := rec.Close()
	require.NotNil(t, f)
	require.Equal(t, uint16(0), f.Format)
	require.Equal(t, 1, f.NumTracks())

	tr := f.Track(0)
	require.Equal(t, 4, tr.Len())
	for i, want := range []uint32{0, 480, 720, 720} {
		require.Equal(t, want, tr.At(i).AbsoluteTm, "event %d", i)
	}
	require.Equal(t, uint32(240), tr.At(2).DeltaTm)
	require.True(t, tr.At(3).IsEndOfTrack())

	require.ErrorIs(t, rec.Record(gomidi.NoteOn(0, 60, 1)), stream.ErrClosed)
	require.Nil(t, rec.Close())
}

func TestRecorderConcurrentWrites(t *testing.T) {
	s, err := stream.Open(smf.NewFile(96), stream.WithClock(stream.ClockFunc(func() int64 { return 100 })))
	require.NoError(t, err)
	require.NoError(t, s.Start(0))
	rec := NewRecorder(s, 1)

	errs := make(chan error, 80)
	var wg sync.WaitGroup
	for ch := uint8(0); ch < 8; ch++ {
		wg.Add(1)
		go func(ch uint8) {
			defer wg.Done()
			for key := uint8(0); key < 10; key++ {
				errs <- rec.Record(gomidi.NoteOn(ch, key, 1))
			}
		}(ch)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	f := rec.Close()
	require.Equal(t, uint16(1), f.Format)
	require.Equal(t, 1, f.Track(0).Len())
	require.Equal(t, 81, f.Track(1).Len())
	require.Equal(t, uint32(19), f.Track(1).At(0).AbsoluteTm)
	require.Equal(t, uint32(0), f.Track(1).At(1).DeltaTm)
}
