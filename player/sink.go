package player

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Sink receives the channel messages a Player sends.
type Sink interface {
	Send(msg gomidi.Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg gomidi.Message) error

func (f SinkFunc) Send(msg gomidi.Message) error {
	return f(msg)
}

// PortSink writes to a MIDI output port.
type PortSink struct {
	port drivers.Out
	send func(msg gomidi.Message) error
}

// OpenPort opens out for writing.
func OpenPort(out drivers.Out) (*PortSink, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", out.String(), err)
	}
	return &PortSink{port: out, send: send}, nil
}

func (p *PortSink) Send(msg gomidi.Message) error {
	return p.send(msg)
}

func (p *PortSink) String() string {
	return p.port.String()
}

func (p *PortSink) Close() error {
	return p.port.Close()
}
