package smf

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Status bytes
const (
	StatusNoteOff         uint8 = 0x80
	StatusNoteOn          uint8 = 0x90
	StatusPolyAftertouch  uint8 = 0xA0
	StatusControlChange   uint8 = 0xB0
	StatusProgramChange   uint8 = 0xC0
	StatusChannelPressure uint8 = 0xD0
	StatusPitchBend       uint8 = 0xE0
	StatusSysEx           uint8 = 0xF0
	StatusSysExEscape     uint8 = 0xF7
	StatusMeta            uint8 = 0xFF
)

// Message is a short MIDI message. For SysEx and Meta events Data1 and
// Data2 only mirror the first two payload bytes.
type Message struct {
	Status uint8
	Data1  uint8
	Data2  uint8
}

// IsChannel reports whether the status is a channel voice message.
func (m Message) IsChannel() bool {
	return m.Status >= 0x80 && m.Status < 0xF0
}

// Channel is the low nibble of a channel message's status.
func (m Message) Channel() uint8 {
	return m.Status & 0x0F
}

// Kind is the high nibble of a channel message's status.
func (m Message) Kind() uint8 {
	return m.Status & 0xF0
}

// hasData2 is false only for program change and channel pressure.
func hasData2(status uint8) bool {
	return !(status >= 0xC0 && status <= 0xDF)
}

// Pack stores the message in one integer, status in the low byte, the way
// PortMidi-style device layers pass short messages around.
func (m Message) Pack() uint32 {
	return uint32(m.Data2)<<16 | uint32(m.Data1)<<8 | uint32(m.Status)
}

func Unpack(v uint32) Message {
	return Message{
		Status: uint8(v),
		Data1:  uint8(v >> 8),
		Data2:  uint8(v >> 16),
	}
}

// MIDI returns the wire form of the event for a gomidi output.
// Meta events have no wire form and return nil.
func (e *Event) MIDI() gomidi.Message {
	if e.Meta != nil {
		if e.Message.Status == StatusSysEx {
			b := make([]byte, 0, len(e.Meta.Data)+1)
			b = append(b, StatusSysEx)
			return gomidi.Message(append(b, e.Meta.Data...))
		}
		return nil
	}
	if hasData2(e.Message.Status) {
		return gomidi.Message{e.Message.Status, e.Message.Data1, e.Message.Data2}
	}
	return gomidi.Message{e.Message.Status, e.Message.Data1}
}

// NewMessageEvent turns a gomidi message into an event.
// A SysEx message keeps its trailing 0xF7 in the payload, as SMF stores it.
func NewMessageEvent(delta uint32, msg gomidi.Message) (*Event, error) {
	b := msg.Bytes()
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidEvent)
	}
	status := b[0]
	switch {
	case status == StatusSysEx:
		return NewSysExEvent(delta, b[1:]), nil
	case status >= 0x80 && status < 0xF0:
		ev := &Event{DeltaTm: delta, Message: Message{Status: status}}
		want := 3
		if !hasData2(status) {
			want = 2
		}
		if len(b) < want {
			return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrInvalidEvent, msg.Type(), want, len(b))
		}
		ev.Message.Data1 = b[1]
		if want == 3 {
			ev.Message.Data2 = b[2]
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("%w: status %#02x cannot be stored in a track", ErrInvalidEvent, status)
	}
}
