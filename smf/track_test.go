package smf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackAbsoluteTimes(t *testing.T) {
	track := &Track{}
	deltas := []uint32{0, 10, 0, 5, 100}
	want := []uint32{0, 10, 10, 15, 115}
	for _, d := range deltas {
		track.PushBack(NewNoteOn(d, 0, 60, 1))
	}
	require.Equal(t, len(deltas), track.Len())
	for i, ev := range track.Events() {
		require.Equal(t, want[i], ev.AbsoluteTm)
	}
	require.Equal(t, uint32(115), track.Back().AbsoluteTm)
	require.Equal(t, uint32(0), track.Front().AbsoluteTm)
}

func TestTrackPopAndPushFront(t *testing.T) {
	track := &Track{}
	require.Nil(t, track.PopFront())
	require.Nil(t, track.Front())
	require.Nil(t, track.Back())

	track.PushBack(NewNoteOn(3, 0, 60, 1))
	track.PushBack(NewNoteOn(4, 0, 61, 1))

	first := track.PopFront()
	require.Equal(t, uint32(3), first.AbsoluteTm)
	require.Equal(t, 1, track.Len())

	// pushing back the event does not touch its absolute time
	track.PushFront(first)
	require.Equal(t, 2, track.Len())
	require.Same(t, first, track.Front())
	require.Equal(t, uint32(3), first.AbsoluteTm)
	require.Equal(t, uint32(7), track.Back().AbsoluteTm)

	// appending after the pops still uses the tail
	track.PopFront()
	track.PopFront()
	require.Equal(t, 0, track.Len())
	ev := NewNoteOn(9, 0, 62, 1)
	track.PushBack(ev)
	require.Equal(t, uint32(9), ev.AbsoluteTm)
}

func TestTrackRingWraps(t *testing.T) {
	track := &Track{}
	var abs uint32
	next := 0
	for round := 0; round < 10; round++ {
		for i := 0; i < 13; i++ {
			track.PushBack(NewNoteOn(1, 0, uint8(next%128), 1))
			next++
		}
		for i := 0; i < 11; i++ {
			ev := track.PopFront()
			abs++
			require.Equal(t, abs, ev.AbsoluteTm)
		}
	}
	require.Equal(t, 20, track.Len())
	for i := 0; i < track.Len(); i++ {
		require.Equal(t, abs+uint32(i)+1, track.At(i).AbsoluteTm)
	}
	require.Nil(t, track.At(-1))
	require.Nil(t, track.At(track.Len()))
}

func TestTrackClear(t *testing.T) {
	alloc := &BudgetAllocator{}
	track := &Track{}
	for i := 0; i < 5; i++ {
		ev, err := alloc.NewEvent()
		require.NoError(t, err)
		track.PushBack(ev)
	}
	events, _ := alloc.InUse()
	require.Equal(t, int64(5), events)

	track.Clear(alloc)
	require.Equal(t, 0, track.Len())
	events, _ = alloc.InUse()
	require.Equal(t, int64(0), events)
}

func TestFileTracks(t *testing.T) {
	f := NewFile(120)
	require.Equal(t, 0, f.NumTracks())
	require.Nil(t, f.Track(0))

	a := f.NewTrack()
	b := &Track{}
	f.PushTrack(b)
	require.Equal(t, 2, f.NumTracks())
	require.Same(t, a, f.Track(0))
	require.Same(t, b, f.Track(1))
	require.Nil(t, f.Track(-1))
}
