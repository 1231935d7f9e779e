package smf

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type options struct {
	alloc Allocator
}

type Option func(*options)

// WithAllocator sets where decoded events come from. The default is
// HeapAllocator.
func WithAllocator(a Allocator) Option {
	return func(o *options) {
		o.alloc = a
	}
}

func buildOptions(opts []Option) options {
	o := options{alloc: HeapAllocator{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Decode reads a complete Standard MIDI File. Any structural problem aborts
// the decode; no partially decoded file is returned.
func Decode(r io.Reader, opts ...Option) (*File, error) {
	o := buildOptions(opts)
	c := newCursor(r)

	var header FileHeader
	if err := header.decode(c); err != nil {
		return nil, err
	}
	if header.Format == 0 && header.NumTracks != 1 {
		logrus.Debugf("format 0 file declares %d tracks", header.NumTracks)
	}

	f := &File{Format: header.Format, TimeDivision: header.TimeDivision}
	for i := 0; i < int(header.NumTracks); i++ {
		if err := decodeTrack(c, f, o.alloc); err != nil {
			for _, t := range f.tracks {
				t.Clear(o.alloc)
			}
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
	}
	return f, nil
}

// Encode writes f as a Standard MIDI File. The track count in the header is
// taken from the file's tracks.
func Encode(w io.Writer, f *File) error {
	if len(f.tracks) > 0xFFFF {
		return fmt.Errorf("%w: %d tracks do not fit in a header", ErrInvalidEvent, len(f.tracks))
	}
	cw := &countingWriter{w: w}
	header := FileHeader{
		Format:       f.Format,
		NumTracks:    uint16(len(f.tracks)),
		TimeDivision: f.TimeDivision,
	}
	if err := header.Encode(cw); err != nil {
		return err
	}
	for i, t := range f.tracks {
		if err := t.encode(cw); err != nil {
			return fmt.Errorf("track %d: %w", i, err)
		}
	}
	return nil
}

func ReadFile(path string, opts ...Option) (*File, error) {
	inFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer inFile.Close()

	return Decode(bufio.NewReaderSize(inFile, 32*1024), opts...)
}

func WriteFile(path string, f *File) error {
	outFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer outFile.Close()

	bufferedWriter := bufio.NewWriterSize(outFile, 32*1024)
	if err := Encode(bufferedWriter, f); err != nil {
		return err
	}
	if err := bufferedWriter.Flush(); err != nil {
		return err
	}
	return outFile.Close()
}
