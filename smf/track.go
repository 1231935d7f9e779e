package smf

// Track is an ordered list of events kept in a ring buffer, so appending at
// the tail and popping at the head are both O(1).
type Track struct {
	buf  []*Event
	head int
	n    int
}

func (t *Track) Len() int {
	return t.n
}

func (t *Track) grow() {
	size := len(t.buf) * 2
	if size == 0 {
		size = 16
	}
	buf := make([]*Event, size)
	for i := 0; i < t.n; i++ {
		buf[i] = t.buf[(t.head+i)%len(t.buf)]
	}
	t.buf = buf
	t.head = 0
}

// PushBack appends e and sets its AbsoluteTm from the previous tail.
func (t *Track) PushBack(e *Event) {
	if t.n == len(t.buf) {
		t.grow()
	}
	if tail := t.Back(); tail != nil {
		e.AbsoluteTm = tail.AbsoluteTm + e.DeltaTm
	} else {
		e.AbsoluteTm = e.DeltaTm
	}
	t.buf[(t.head+t.n)%len(t.buf)] = e
	t.n++
}

// PushFront puts back an event that was just popped. AbsoluteTm is left
// as it is, so it must already be correct for this position.
func (t *Track) PushFront(e *Event) {
	if t.n == len(t.buf) {
		t.grow()
	}
	t.head = (t.head - 1 + len(t.buf)) % len(t.buf)
	t.buf[t.head] = e
	t.n++
}

// PopFront detaches the head event; the caller owns it afterwards.
func (t *Track) PopFront() *Event {
	if t.n == 0 {
		return nil
	}
	e := t.buf[t.head]
	t.buf[t.head] = nil
	t.head = (t.head + 1) % len(t.buf)
	t.n--
	return e
}

func (t *Track) Front() *Event {
	if t.n == 0 {
		return nil
	}
	return t.buf[t.head]
}

func (t *Track) Back() *Event {
	if t.n == 0 {
		return nil
	}
	return t.buf[(t.head+t.n-1)%len(t.buf)]
}

func (t *Track) At(i int) *Event {
	if i < 0 || i >= t.n {
		return nil
	}
	return t.buf[(t.head+i)%len(t.buf)]
}

// Events returns the events in order. The slice is a copy; the events are not.
func (t *Track) Events() []*Event {
	out := make([]*Event, t.n)
	for i := range out {
		out[i] = t.At(i)
	}
	return out
}

// Clear drops every event, releasing them through alloc when it is non-nil.
func (t *Track) Clear(alloc Allocator) {
	for t.n > 0 {
		e := t.PopFront()
		if alloc != nil {
			alloc.Free(e)
		}
	}
}
