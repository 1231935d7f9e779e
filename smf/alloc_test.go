package smf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBudgetAllocatorPayloadLimit(t *testing.T) {
	f := NewFile(96)
	track := f.NewTrack()
	track.PushBack(NewMetaEvent(0, MetaSequencerSpecific, make([]byte, 200)))
	track.PushBack(NewEndOfTrackEvent(0))
	encoded := encodeToBytes(t, f)

	alloc := &BudgetAllocator{MaxPayloadBytes: 100}
	_, err := Decode(bytes.NewReader(encoded), WithAllocator(alloc))
	require.ErrorIs(t, err, ErrAllocation)
	require.False(t, errors.Is(err, ErrMalformedInput))

	events, payload := alloc.InUse()
	require.Equal(t, int64(0), events)
	require.Equal(t, int64(0), payload)

	alloc = &BudgetAllocator{MaxPayloadBytes: 200}
	got, err := Decode(bytes.NewReader(encoded), WithAllocator(alloc))
	require.NoError(t, err)
	require.Equal(t, 2, got.Track(0).Len())
	events, payload = alloc.InUse()
	require.Equal(t, int64(2), events)
	require.Equal(t, int64(200), payload)
}

func TestBudgetAllocatorEventLimit(t *testing.T) {
	alloc := &BudgetAllocator{MaxEvents: 2}
	_, err := Decode(bytes.NewReader(scenarioBytes), WithAllocator(alloc))
	require.ErrorIs(t, err, ErrAllocation)

	// everything decoded before the failure was handed back
	events, _ := alloc.InUse()
	require.Equal(t, int64(0), events)

	alloc = &BudgetAllocator{MaxEvents: 3}
	_, err = Decode(bytes.NewReader(scenarioBytes), WithAllocator(alloc))
	require.NoError(t, err)
}

func TestHeapAllocator(t *testing.T) {
	var a HeapAllocator
	m, err := a.NewMeta(4)
	require.NoError(t, err)
	require.Len(t, m.Data, 4)
	ev, err := a.NewEvent()
	require.NoError(t, err)
	a.Free(ev)
}
