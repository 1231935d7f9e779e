package smf

import (
	"encoding/binary"
	"fmt"
	"io"
)

var (
	ChunkHeader = NewFourByteStr("MThd")
	ChunkTrack  = NewFourByteStr("MTrk")
)

// headerSize is the fixed length of the MThd chunk body.
const headerSize = 6

// FileHeader is the body of the MThd chunk.
type FileHeader struct {
	Format       uint16
	NumTracks    uint16
	TimeDivision uint16
}

type headerChunk struct {
	ChunkType FourByteString
	ChunkSize uint32
	Header    FileHeader
}

func (h *FileHeader) decode(c *cursor) error {
	if err := c.expectMagic(ChunkHeader); err != nil {
		return err
	}
	sizeOffset := c.offset
	size, err := c.readUint32()
	if err != nil {
		return err
	}
	if size != headerSize {
		return malformed(sizeOffset, fmt.Sprintf("header size %d", headerSize), fmt.Sprint(size))
	}
	formatOffset := c.offset
	if h.Format, err = c.readUint16(); err != nil {
		return err
	}
	if h.Format > 2 {
		return malformed(formatOffset, "format 0, 1 or 2", fmt.Sprint(h.Format))
	}
	if h.NumTracks, err = c.readUint16(); err != nil {
		return err
	}
	if h.TimeDivision, err = c.readUint16(); err != nil {
		return err
	}
	return nil
}

func (h *FileHeader) Encode(w io.Writer) error {
	return binary.Write(w, binary.BigEndian, &headerChunk{
		ChunkType: ChunkHeader,
		ChunkSize: headerSize,
		Header:    *h,
	})
}
