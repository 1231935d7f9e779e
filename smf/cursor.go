package smf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// cursor is a buffered big-endian reader that remembers how far into the
// input it is, so errors can point at the offending byte.
type cursor struct {
	r      *bufio.Reader
	offset int64
}

func newCursor(r io.Reader) *cursor {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 32*1024)
	}
	return &cursor{r: br}
}

func (c *cursor) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err != nil {
		return 0, err
	}
	c.offset++
	return b, nil
}

func (c *cursor) readByte() (byte, error) {
	b, err := c.ReadByte()
	if err != nil {
		return 0, truncated(c.offset, eofToUnexpected(err))
	}
	return b, nil
}

func (c *cursor) readFull(buf []byte) error {
	n, err := io.ReadFull(c.r, buf)
	c.offset += int64(n)
	if err != nil {
		return truncated(c.offset, eofToUnexpected(err))
	}
	return nil
}

func (c *cursor) readUint16() (uint16, error) {
	var buf [2]byte
	if err := c.readFull(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func (c *cursor) readUint32() (uint32, error) {
	var buf [4]byte
	if err := c.readFull(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func (c *cursor) readVLQ() (uint32, int, error) {
	start := c.offset
	v, n, err := DecodeVLQ(c)
	if err == errVLQOverflow {
		return 0, n, malformed(start, "variable-length quantity of at most 5 bytes", "overflow")
	}
	if err != nil {
		return 0, n, truncated(c.offset, eofToUnexpected(err))
	}
	return v, n, nil
}

func (c *cursor) expectMagic(want FourByteString) error {
	start := c.offset
	var got FourByteString
	if err := c.readFull(got[:]); err != nil {
		return err
	}
	if got != want {
		return malformed(start, fmt.Sprintf("%q", want.String()), fmt.Sprintf("%q", got.String()))
	}
	return nil
}

func eofToUnexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
