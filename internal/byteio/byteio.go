// Package byteio provides a seekable byte cursor over a random-access
// archive, with bounded reads and little-endian integer helpers. It is the
// foundation [structure.Parse] and the ZIP directory scan are built on.
package byteio

import (
	"encoding/binary"
	"io"
)

// Reader is a cursor over an [io.ReaderAt] of known total length.
type Reader struct {
	r      io.ReaderAt
	length int64
	offset int64
}

// New wraps r, which is assumed to hold exactly length bytes.
func New(r io.ReaderAt, length int64) *Reader {
	return &Reader{r: r, length: length}
}

// Len returns the total size of the underlying archive.
func (b *Reader) Len() int64 { return b.length }

// Source returns the underlying random-access reader, for callers (such as
// the zip package) that need to construct an independent view over the same
// bytes, e.g. an [io.SectionReader] for a single entry's data.
func (b *Reader) Source() io.ReaderAt { return b.r }

// Offset returns the current cursor position.
func (b *Reader) Offset() int64 { return b.offset }

// SetOffset seeks the cursor to an absolute position.
func (b *Reader) SetOffset(off int64) { b.offset = off }

// Remaining returns the number of bytes between the cursor and the end of
// the archive.
func (b *Reader) Remaining() int64 { return b.length - b.offset }

// ReadIntoVec reads and returns the next n bytes, advancing the cursor by
// however many bytes were actually read. A short read is reported as
// [io.ErrUnexpectedEOF], matching the byte slice's true length.
func (b *Reader) ReadIntoVec(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if n < 0 || int64(n) > b.Remaining() {
		return nil, io.ErrUnexpectedEOF
	}
	buf := make([]byte, n)
	nn, err := b.r.ReadAt(buf, b.offset)
	b.offset += int64(nn)
	if nn < n {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return buf[:nn], err
	}
	return buf, nil
}

// ReadLeU16 reads a little-endian uint16.
func (b *Reader) ReadLeU16() (uint16, error) {
	buf, err := b.ReadIntoVec(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadLeU32 reads a little-endian uint32.
func (b *Reader) ReadLeU32() (uint32, error) {
	buf, err := b.ReadIntoVec(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}
