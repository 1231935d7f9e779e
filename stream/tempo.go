package stream

import (
	"github.com/sirupsen/logrus"
)

// DefaultTempo is 120 BPM in microseconds per quarter note.
const DefaultTempo uint32 = 500000

// anchor ties a tick to a wall-clock instant (ts milliseconds plus us
// microseconds) and the tempo in force from that point on.
type anchor struct {
	ts    int64
	us    int
	tick  uint32
	tempo uint32
}

// Tempo is the current tempo in microseconds per quarter note.
func (s *Stream) Tempo() uint32 {
	return s.anchor.tempo
}

// TickAt converts a millisecond timestamp to a tick using the current tempo
// anchor. Timestamps before the anchor map to the anchor's tick.
func (s *Stream) TickAt(ts int64) uint32 {
	return s.TickAtTime(ts, 0)
}

// TickAtTime is TickAt with microsecond precision.
func (s *Stream) TickAtTime(ms int64, us int) uint32 {
	a := s.anchor
	elapsed := (ms-a.ts)*1000 + int64(us) - int64(a.us)
	if elapsed <= 0 || a.tempo == 0 {
		return a.tick
	}
	return a.tick + uint32(uint64(elapsed)*uint64(s.div)/uint64(a.tempo))
}

// TimestampAt converts a tick to milliseconds and the microseconds left
// over. Ticks before the anchor map to the anchor's time.
func (s *Stream) TimestampAt(tick uint32) (int64, int) {
	a := s.anchor
	total := a.ts*1000 + int64(a.us)
	if tick > a.tick && s.div != 0 {
		total += int64(uint64(tick-a.tick) * uint64(a.tempo) / uint64(s.div))
	}
	return floorDiv(total, 1000), int(floorMod(total, 1000))
}

// SetTempoAtTick changes the tempo from tick onwards and returns the
// timestamp of the change. Changes must be applied in tick order.
func (s *Stream) SetTempoAtTick(tick uint32, tempo uint32) (int64, error) {
	if err := s.checkRunning(); err != nil {
		return 0, err
	}
	if tempo == 0 {
		return 0, ErrZeroTempo
	}
	ts, us := s.TimestampAt(tick)
	s.anchor = anchor{ts: ts, us: us, tick: tick, tempo: tempo}
	logrus.WithFields(logrus.Fields{"tick": tick, "ts": ts, "tempo": tempo}).Debug("tempo change")
	return ts, nil
}

// SetTempoAtTimestamp changes the tempo from ts onwards and returns the tick
// of the change. Changes must be applied in time order.
func (s *Stream) SetTempoAtTimestamp(ts int64, tempo uint32) (uint32, error) {
	if err := s.checkRunning(); err != nil {
		return 0, err
	}
	if tempo == 0 {
		return 0, ErrZeroTempo
	}
	tick := s.TickAt(ts)
	s.anchor = anchor{ts: ts, tick: tick, tempo: tempo}
	logrus.WithFields(logrus.Fields{"tick": tick, "ts": ts, "tempo": tempo}).Debug("tempo change")
	return tick, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
