package smf

import (
	"fmt"
	"sync/atomic"
)

// Allocator decides where decoded events and meta payloads come from.
// Implementations return an error wrapping ErrAllocation instead of
// aborting when they cannot satisfy a request.
type Allocator interface {
	NewEvent() (*Event, error)
	NewMeta(length uint32) (*Meta, error)
	// Free is called for every event the library discards on the caller's
	// behalf, together with its Meta.
	Free(e *Event)
}

// HeapAllocator allocates from the Go heap and never fails.
type HeapAllocator struct{}

func (HeapAllocator) NewEvent() (*Event, error) {
	return &Event{}, nil
}

func (HeapAllocator) NewMeta(length uint32) (*Meta, error) {
	return &Meta{Data: make([]byte, length)}, nil
}

func (HeapAllocator) Free(*Event) {}

// BudgetAllocator caps the number of live events and the bytes held in meta
// payloads. Zero means unlimited. It is safe for concurrent use.
type BudgetAllocator struct {
	MaxEvents       int64
	MaxPayloadBytes int64

	events  atomic.Int64
	payload atomic.Int64
}

func (a *BudgetAllocator) NewEvent() (*Event, error) {
	n := a.events.Add(1)
	if a.MaxEvents > 0 && n > a.MaxEvents {
		a.events.Add(-1)
		return nil, fmt.Errorf("%w: event limit %d reached", ErrAllocation, a.MaxEvents)
	}
	return &Event{}, nil
}

func (a *BudgetAllocator) NewMeta(length uint32) (*Meta, error) {
	n := a.payload.Add(int64(length))
	if a.MaxPayloadBytes > 0 && n > a.MaxPayloadBytes {
		a.payload.Add(-int64(length))
		return nil, fmt.Errorf("%w: %d payload bytes requested, %d of %d in use",
			ErrAllocation, length, n-int64(length), a.MaxPayloadBytes)
	}
	return &Meta{Data: make([]byte, length)}, nil
}

func (a *BudgetAllocator) Free(e *Event) {
	if e == nil {
		return
	}
	a.events.Add(-1)
	if e.Meta != nil {
		a.payload.Add(-int64(len(e.Meta.Data)))
		e.Meta = nil
	}
}

// InUse reports the live event count and payload bytes.
func (a *BudgetAllocator) InUse() (events, payloadBytes int64) {
	return a.events.Load(), a.payload.Load()
}
