package smf

import (
	"encoding/binary"
	"fmt"
	"io"
)

type trackChunkHeader struct {
	ChunkType FourByteString
	ChunkSize uint32
}

// decodeTrack reads one MTrk chunk into a new track of f. Events are decoded
// until exactly the declared number of bytes has been consumed.
func decodeTrack(c *cursor, f *File, alloc Allocator) error {
	if err := c.expectMagic(ChunkTrack); err != nil {
		return err
	}
	remaining, err := c.readUint32()
	if err != nil {
		return err
	}
	track := f.NewTrack()

	var status uint8
	for remaining > 0 {
		start := c.offset
		ev, rd, err := decodeEvent(c, alloc, &status, remaining)
		if err != nil {
			return err
		}
		if rd > remaining {
			alloc.Free(ev)
			return malformed(start, fmt.Sprintf("event within %d remaining chunk bytes", remaining), fmt.Sprintf("%d byte event", rd))
		}
		remaining -= rd
		track.PushBack(ev)
	}
	return nil
}

// decodeEvent reads a delta time and one event. status is the running
// status register of the current track.
func decodeEvent(c *cursor, alloc Allocator, status *uint8, remaining uint32) (*Event, uint32, error) {
	delta, n, err := c.readVLQ()
	if err != nil {
		return nil, 0, err
	}
	rd := uint32(n)

	ev, err := alloc.NewEvent()
	if err != nil {
		return nil, rd, &Error{Op: "decode", Kind: ErrAllocation, Offset: c.offset, Err: err}
	}
	ev.DeltaTm = delta

	fail := func(err error) (*Event, uint32, error) {
		alloc.Free(ev)
		return nil, rd, err
	}

	statusOffset := c.offset
	b, err := c.readByte()
	if err != nil {
		return fail(err)
	}
	rd++

	switch {
	case b < 0xF0:
		var data1 uint8
		if b < 0x80 {
			// running status: b is already data1
			if *status == 0 {
				return fail(malformed(statusOffset, "status byte", fmt.Sprintf("data byte %#02x without running status", b)))
			}
			data1 = b
			b = *status
		} else {
			if data1, err = c.readByte(); err != nil {
				return fail(err)
			}
			rd++
		}
		ev.Message = Message{Status: b, Data1: data1}
		if hasData2(b) {
			if ev.Message.Data2, err = c.readByte(); err != nil {
				return fail(err)
			}
			rd++
		}
		*status = b

	case b == StatusSysEx || b == StatusSysExEscape || b == StatusMeta:
		typ := b
		if b == StatusMeta {
			if typ, err = c.readByte(); err != nil {
				return fail(err)
			}
			rd++
		}
		lengthOffset := c.offset
		length, n, err := c.readVLQ()
		if err != nil {
			return fail(err)
		}
		rd += uint32(n)
		if uint64(rd)+uint64(length) > uint64(remaining) {
			return fail(malformed(lengthOffset, fmt.Sprintf("payload within %d remaining chunk bytes", remaining-min(rd, remaining)), fmt.Sprintf("%d byte payload", length)))
		}
		meta, err := alloc.NewMeta(length)
		if err != nil {
			return fail(&Error{Op: "decode", Kind: ErrAllocation, Offset: lengthOffset, Err: err})
		}
		meta.Type = typ
		ev.Meta = meta
		if err := c.readFull(meta.Data); err != nil {
			return fail(err)
		}
		rd += length
		ev.Message.Status = b
		ev.mirrorPayload()
		// SysEx and Meta events cancel running status.
		*status = 0

	default:
		return fail(malformed(statusOffset, "channel, SysEx or Meta status", fmt.Sprintf("%#02x", b)))
	}

	return ev, rd, nil
}

func (t *Track) encode(w *countingWriter) error {
	var status uint8
	var size uint32
	for i := 0; i < t.n; i++ {
		n, err := EventLength(t.At(i), &status)
		if err != nil {
			return &Error{Op: "encode", Kind: ErrInvalidEvent, Offset: w.n, Found: fmt.Sprintf("event %d", i), Err: err}
		}
		size += n
	}
	if err := binary.Write(w, binary.BigEndian, &trackChunkHeader{ChunkType: ChunkTrack, ChunkSize: size}); err != nil {
		return err
	}

	status = 0
	for i := 0; i < t.n; i++ {
		if err := encodeEvent(w, t.At(i), &status); err != nil {
			return err
		}
	}
	return nil
}

func checkEncodable(e *Event) error {
	s := e.Message.Status
	switch {
	case s < 0x80:
		return fmt.Errorf("%w: status %#02x is a data byte", ErrInvalidEvent, s)
	case s < 0xF0:
		return nil
	case s != StatusSysEx && s != StatusSysExEscape && s != StatusMeta:
		return fmt.Errorf("%w: unrecognized status %#02x", ErrInvalidEvent, s)
	case e.Meta == nil:
		return fmt.Errorf("%w: status %#02x without payload", ErrInvalidEvent, s)
	}
	return nil
}

// EventLength is the number of bytes e occupies in a track chunk given the
// running status register, which it updates.
func EventLength(e *Event, status *uint8) (uint32, error) {
	if err := checkEncodable(e); err != nil {
		return 0, err
	}
	sz := uint32(VLQLength(e.DeltaTm))
	s := e.Message.Status
	if s < 0xF0 {
		if s != *status {
			sz++
		}
		sz++
		if hasData2(s) {
			sz++
		}
	} else {
		sz++
		if s == StatusMeta {
			sz++
		}
		sz += uint32(VLQLength(e.Meta.Length())) + e.Meta.Length()
	}
	*status = s
	return sz, nil
}

func encodeEvent(w *countingWriter, e *Event, status *uint8) error {
	if err := checkEncodable(e); err != nil {
		return &Error{Op: "encode", Kind: ErrInvalidEvent, Offset: w.n, Err: err}
	}
	var scratch [16]byte
	b := AppendVLQ(scratch[:0], e.DeltaTm)
	s := e.Message.Status
	if s < 0xF0 {
		if s != *status {
			b = append(b, s)
		}
		b = append(b, e.Message.Data1)
		if hasData2(s) {
			b = append(b, e.Message.Data2)
		}
		*status = s
		_, err := w.Write(b)
		return err
	}

	b = append(b, s)
	if s == StatusMeta {
		b = append(b, e.Meta.Type)
	}
	b = AppendVLQ(b, e.Meta.Length())
	*status = s
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err := w.Write(e.Meta.Data)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
