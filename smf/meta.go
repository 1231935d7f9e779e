package smf

import (
	"encoding/binary"
)

// Meta event types
const (
	MetaSequenceNumber    uint8 = 0x00
	MetaText              uint8 = 0x01
	MetaCopyright         uint8 = 0x02
	MetaTrackName         uint8 = 0x03
	MetaInstrumentName    uint8 = 0x04
	MetaLyric             uint8 = 0x05
	MetaMarker            uint8 = 0x06
	MetaCuePoint          uint8 = 0x07
	MetaChannelPrefix     uint8 = 0x20
	MetaEndOfTrack        uint8 = 0x2F
	MetaTempo             uint8 = 0x51
	MetaSMPTEOffset       uint8 = 0x54
	MetaTimeSignature     uint8 = 0x58
	MetaKeySignature      uint8 = 0x59
	MetaSequencerSpecific uint8 = 0x7F
)

// Meta is the payload of a SysEx or Meta event. For SysEx events Type
// repeats the status byte (0xF0 or 0xF7).
type Meta struct {
	Type uint8
	Data []byte
}

func (m *Meta) Length() uint32 {
	return uint32(len(m.Data))
}

// Tempo returns microseconds per quarter note.
func (m *Meta) Tempo() (uint32, bool) {
	if m.Type != MetaTempo || len(m.Data) != 3 {
		return 0, false
	}
	return uint32(m.Data[0])<<16 | uint32(m.Data[1])<<8 | uint32(m.Data[2]), true
}

type TimeSignature struct {
	Numerator        uint8
	DenominatorPower uint8 // denominator is 2^DenominatorPower
	ClocksPerClick   uint8
	ThirtySecondsPer uint8 // notated 32nd notes per quarter note
}

func (m *Meta) TimeSignature() (TimeSignature, bool) {
	if m.Type != MetaTimeSignature || len(m.Data) != 4 {
		return TimeSignature{}, false
	}
	return TimeSignature{
		Numerator:        m.Data[0],
		DenominatorPower: m.Data[1],
		ClocksPerClick:   m.Data[2],
		ThirtySecondsPer: m.Data[3],
	}, true
}

type KeySignature struct {
	Sharps int8 // negative for flats
	Minor  bool
}

func (m *Meta) KeySignature() (KeySignature, bool) {
	if m.Type != MetaKeySignature || len(m.Data) != 2 {
		return KeySignature{}, false
	}
	return KeySignature{Sharps: int8(m.Data[0]), Minor: m.Data[1] == 1}, true
}

func (m *Meta) SequenceNumber() (uint16, bool) {
	if m.Type != MetaSequenceNumber || len(m.Data) != 2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(m.Data), true
}

func (m *Meta) ChannelPrefix() (uint8, bool) {
	if m.Type != MetaChannelPrefix || len(m.Data) != 1 {
		return 0, false
	}
	return m.Data[0], true
}

// Text returns the payload of the text-like meta events (0x01 to 0x07).
func (m *Meta) Text() (string, bool) {
	if m.Type < MetaText || m.Type > MetaCuePoint {
		return "", false
	}
	return string(m.Data), true
}

func (e *Event) mirrorPayload() {
	e.Message.Data1, e.Message.Data2 = 0, 0
	if e.Meta == nil {
		return
	}
	if len(e.Meta.Data) >= 1 {
		e.Message.Data1 = e.Meta.Data[0]
	}
	if len(e.Meta.Data) >= 2 {
		e.Message.Data2 = e.Meta.Data[1]
	}
}

// NewMetaEvent builds a 0xFF event. data is copied.
func NewMetaEvent(delta uint32, typ uint8, data []byte) *Event {
	ev := &Event{
		DeltaTm: delta,
		Message: Message{Status: StatusMeta},
		Meta:    &Meta{Type: typ, Data: append([]byte{}, data...)},
	}
	ev.mirrorPayload()
	return ev
}

// NewSysExEvent builds a 0xF0 event. data is everything after the status
// byte, normally ending in 0xF7.
func NewSysExEvent(delta uint32, data []byte) *Event {
	ev := &Event{
		DeltaTm: delta,
		Message: Message{Status: StatusSysEx},
		Meta:    &Meta{Type: StatusSysEx, Data: append([]byte{}, data...)},
	}
	ev.mirrorPayload()
	return ev
}

func NewEndOfTrackEvent(delta uint32) *Event {
	return NewMetaEvent(delta, MetaEndOfTrack, nil)
}

// NewTempoEvent takes microseconds per quarter note; only the low 24 bits
// are representable.
func NewTempoEvent(delta uint32, usPerQuarter uint32) *Event {
	return NewMetaEvent(delta, MetaTempo, []byte{
		byte(usPerQuarter >> 16),
		byte(usPerQuarter >> 8),
		byte(usPerQuarter),
	})
}

func NewTimeSignatureEvent(delta uint32, ts TimeSignature) *Event {
	return NewMetaEvent(delta, MetaTimeSignature, []byte{
		ts.Numerator, ts.DenominatorPower, ts.ClocksPerClick, ts.ThirtySecondsPer,
	})
}

func NewKeySignatureEvent(delta uint32, ks KeySignature) *Event {
	minor := byte(0)
	if ks.Minor {
		minor = 1
	}
	return NewMetaEvent(delta, MetaKeySignature, []byte{byte(ks.Sharps), minor})
}

func NewTextEvent(delta uint32, typ uint8, text string) *Event {
	return NewMetaEvent(delta, typ, []byte(text))
}
