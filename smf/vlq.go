package smf

import (
	"errors"
	"io"
)

// maxVLQBytes is the longest quantity that still fits in 32 bits.
const maxVLQBytes = 5

var errVLQOverflow = errors.New("variable-length quantity overflows 32 bits")

// EncodeVLQ writes v as a variable-length quantity: 7 bits per byte, most
// significant group first, continuation bit set on every byte but the last.
func EncodeVLQ(w io.Writer, v uint32) error {
	var buf [maxVLQBytes]byte
	b := AppendVLQ(buf[:0], v)
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}

// AppendVLQ appends the encoding of v to b.
func AppendVLQ(b []byte, v uint32) []byte {
	var byts [maxVLQBytes]byte
	n := 0
	cur := v
	for {
		byts[n] = byte(cur & 0x7F)
		n++
		cur >>= 7
		if cur == 0 {
			break
		}
	}
	for i := n - 1; i >= 0; i-- {
		val := byts[i]
		if i > 0 {
			val |= 0x80
		}
		b = append(b, val)
	}
	return b
}

// DecodeVLQ reads a variable-length quantity and reports how many bytes it
// consumed.
func DecodeVLQ(r io.ByteReader) (uint32, int, error) {
	var res uint64
	bytesRead := 0
	for {
		byt, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, bytesRead, err
		}
		bytesRead++
		res = res<<7 | uint64(byt&0x7F)
		if res > 0xFFFFFFFF {
			return 0, bytesRead, errVLQOverflow
		}
		if byt&0x80 == 0 {
			return uint32(res), bytesRead, nil
		}
		if bytesRead >= maxVLQBytes {
			return 0, bytesRead, errVLQOverflow
		}
	}
}

// VLQLength is the number of bytes EncodeVLQ writes for v.
func VLQLength(v uint32) int {
	n := 1
	for v >>= 7; v > 0; v >>= 7 {
		n++
	}
	return n
}

// FourByteString is a chunk type tag.
type FourByteString [4]byte

func NewFourByteStr(str string) FourByteString {
	if len(str) != 4 {
		panic("FourByteString must be 4 bytes")
	}
	res := FourByteString{}
	for i, v := range str {
		res[i] = byte(v)
	}
	return res
}

func (s FourByteString) String() string {
	return string(s[:])
}
