package smf

import (
	"testing"

	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestPackUnpack(t *testing.T) {
	m := Message{Status: 0x93, Data1: 0x40, Data2: 0x7F}
	require.Equal(t, uint32(0x7F4093), m.Pack())
	require.Equal(t, m, Unpack(m.Pack()))
	require.True(t, m.IsChannel())
	require.Equal(t, uint8(3), m.Channel())
	require.Equal(t, StatusNoteOn, m.Kind())
}

func TestMessageEventFromGomidi(t *testing.T) {
	testCases := []struct {
		name string
		msg  gomidi.Message
		want Message
	}{
		{"note on", gomidi.NoteOn(1, 60, 100), Message{Status: 0x91, Data1: 60, Data2: 100}},
		{"note off", gomidi.NoteOff(2, 61), Message{Status: 0x82, Data1: 61}},
		{"control change", gomidi.ControlChange(0, 7, 99), Message{Status: 0xB0, Data1: 7, Data2: 99}},
		{"program change", gomidi.ProgramChange(9, 5), Message{Status: 0xC9, Data1: 5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := NewMessageEvent(12, tc.msg)
			require.NoError(t, err)
			require.Equal(t, uint32(12), ev.DeltaTm)
			require.Equal(t, tc.want, ev.Message)
			require.Equal(t, tc.msg.Bytes(), ev.MIDI().Bytes())
		})
	}
}

func TestSysExMessageEvent(t *testing.T) {
	msg := gomidi.SysEx([]byte{0x7E, 0x7F, 0x09, 0x01})
	ev, err := NewMessageEvent(0, msg)
	require.NoError(t, err)
	require.Equal(t, StatusSysEx, ev.Message.Status)
	require.Equal(t, []byte{0x7E, 0x7F, 0x09, 0x01, 0xF7}, ev.Meta.Data)
	require.Equal(t, msg.Bytes(), ev.MIDI().Bytes())
}

func TestMessageEventRejects(t *testing.T) {
	_, err := NewMessageEvent(0, nil)
	require.ErrorIs(t, err, ErrInvalidEvent)

	_, err = NewMessageEvent(0, gomidi.Message{0x90, 0x3C})
	require.ErrorIs(t, err, ErrInvalidEvent)

	_, err = NewMessageEvent(0, gomidi.Message{0xF8})
	require.ErrorIs(t, err, ErrInvalidEvent)

	require.Nil(t, NewTempoEvent(0, 500000).MIDI())
}
