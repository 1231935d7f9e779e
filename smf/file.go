package smf

import (
	"io"
)

// File is a decoded Standard MIDI File. It owns its tracks.
type File struct {
	Format       uint16 // 0, 1 or 2
	TimeDivision uint16 // ticks per quarter note
	tracks       []*Track
}

func NewFile(timeDivision uint16) *File {
	return &File{TimeDivision: timeDivision}
}

func (f *File) NumTracks() int {
	return len(f.tracks)
}

func (f *File) Track(i int) *Track {
	if i < 0 || i >= len(f.tracks) {
		return nil
	}
	return f.tracks[i]
}

func (f *File) Tracks() []*Track {
	return f.tracks
}

// NewTrack appends an empty track and returns it.
func (f *File) NewTrack() *Track {
	t := &Track{}
	f.PushTrack(t)
	return t
}

// PushTrack appends t. Track indices never change once assigned.
func (f *File) PushTrack(t *Track) {
	f.tracks = append(f.tracks, t)
}

// Decode replaces the contents of f with the file read from r.
func (f *File) Decode(r io.Reader, opts ...Option) error {
	decoded, err := Decode(r, opts...)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

func (f *File) Encode(w io.Writer) error {
	return Encode(w, f)
}
