package smf

// Event is one entry of a track. AbsoluteTm is derived by the owning track
// from DeltaTm when the event is appended.
type Event struct {
	DeltaTm    uint32 // ticks since the previous event in the track
	AbsoluteTm uint32 // ticks since the start of the track
	Message    Message

	// Timestamp is the wall-clock time in milliseconds. A stream stamps it
	// on read; on write a nonzero Timestamp is converted back to ticks.
	Timestamp int64

	Meta *Meta // set for SysEx (0xF0, 0xF7) and Meta (0xFF) events
}

func newChannelEvent(delta uint32, kind, channel, data1, data2 uint8) *Event {
	return &Event{
		DeltaTm: delta,
		Message: Message{Status: kind | channel&0x0F, Data1: data1 & 0x7F, Data2: data2 & 0x7F},
	}
}

func NewNoteOn(delta uint32, channel, key, velocity uint8) *Event {
	return newChannelEvent(delta, StatusNoteOn, channel, key, velocity)
}

func NewNoteOff(delta uint32, channel, key, velocity uint8) *Event {
	return newChannelEvent(delta, StatusNoteOff, channel, key, velocity)
}

func NewControlChange(delta uint32, channel, controller, value uint8) *Event {
	return newChannelEvent(delta, StatusControlChange, channel, controller, value)
}

func NewProgramChange(delta uint32, channel, program uint8) *Event {
	return newChannelEvent(delta, StatusProgramChange, channel, program, 0)
}

func NewChannelPressure(delta uint32, channel, pressure uint8) *Event {
	return newChannelEvent(delta, StatusChannelPressure, channel, pressure, 0)
}

// NewPitchBend takes a 14-bit bend value, 0x2000 being centered.
func NewPitchBend(delta uint32, channel uint8, value uint16) *Event {
	return newChannelEvent(delta, StatusPitchBend, channel, uint8(value&0x7F), uint8(value>>7))
}

// IsMeta reports whether the event carries a SysEx or Meta payload.
func (e *Event) IsMeta() bool {
	return e.Meta != nil
}

// IsEndOfTrack reports whether the event is the end-of-track meta event.
func (e *Event) IsEndOfTrack() bool {
	return e.Meta != nil && e.Message.Status == StatusMeta && e.Meta.Type == MetaEndOfTrack
}
