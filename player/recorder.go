package player

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/GregorR/midifile/smf"
	"github.com/GregorR/midifile/stream"
)

// Recorder writes incoming messages to one track of a started stream,
// stamped with the stream clock. Record may be called from any goroutine.
type Recorder struct {
	mu     sync.Mutex
	stream *stream.Stream
	track  int
	stop   func()
	count  int
}

func NewRecorder(s *stream.Stream, track int) *Recorder {
	return &Recorder{stream: s, track: track}
}

// Record appends msg at the current time.
func (r *Recorder) Record(msg gomidi.Message) error {
	ev, err := smf.NewMessageEvent(0, msg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ev.Timestamp = r.stream.Now()
	if err := r.stream.WriteOne(r.track, ev); err != nil {
		return fmt.Errorf("record %s: %w", msg, err)
	}
	r.count++
	return nil
}

// Listen records everything arriving on in until Stop or Close.
func (r *Recorder) Listen(in drivers.In) error {
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		err := r.Record(msg)
		switch {
		case err == nil:
		case errors.Is(err, smf.ErrInvalidEvent):
			logrus.WithField("msg", msg.String()).Debug("not recording message")
		default:
			logrus.WithError(err).Warn("record failed")
		}
	}, gomidi.UseSysEx())
	if err != nil {
		return fmt.Errorf("open input %q: %w", in.String(), err)
	}

	r.mu.Lock()
	r.stop = stop
	r.mu.Unlock()
	logrus.WithFields(logrus.Fields{"port": in.String(), "track": r.track}).Info("recording")
	return nil
}

// Stop stops listening. Recorded events stay in the stream.
func (r *Recorder) Stop() {
	r.mu.Lock()
	stop := r.stop
	r.stop = nil
	r.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Count is the number of events recorded so far.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Close stops listening, closes the stream and returns the recorded file.
func (r *Recorder) Close() *smf.File {
	r.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.stream.Close()
	if f != nil {
		logrus.WithField("events", r.count).Debug("recording closed")
	}
	return f
}
