package zip

import (
	"io"

	flatepkg "github.com/gozipflate/gozipflate/flate"
)

// EntryReader streams one archive entry's decompressed bytes. It holds an
// exclusive borrow on its Archive until Closed; reading beyond the entry's
// declared size yields io.EOF, never bytes from whatever follows in the
// archive.
type EntryReader struct {
	archive *Archive
	header  *FileHeader
	r       io.Reader
	closed  bool
}

func newEntryReader(a *Archive, fh *FileHeader, section io.Reader) *EntryReader {
	var r io.Reader
	switch fh.method {
	case methodDeflate:
		r = newInflateReader(section)
	default: // methodStored
		r = section
	}
	return &EntryReader{archive: a, header: fh, r: r}
}

// Read implements [io.Reader].
func (e *EntryReader) Read(buf []byte) (int, error) {
	if e.closed {
		return 0, io.ErrClosedPipe
	}
	return e.r.Read(buf)
}

// Close releases this reader's exclusive borrow on the owning Archive,
// allowing another EntryAt call to succeed.
func (e *EntryReader) Close() error {
	if !e.closed {
		e.closed = true
		e.archive.release()
	}
	return nil
}

func newInflateReader(r io.Reader) io.Reader {
	return flatepkg.NewReader(r)
}
