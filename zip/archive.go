// Package zip implements a read-only ZIP archive reader: locating the End of
// Central Directory record despite a trailing comment, loading the central
// directory into an in-memory entry list, and opening any entry's data as a
// streaming decompressor (stored or DEFLATE).
package zip

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
	"golang.org/x/sync/errgroup"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gozipflate/gozipflate/internal/byteio"
	"github.com/gozipflate/gozipflate/internal/structure"
)

// maxEOCDScan bounds the backward EOCD search to the largest distance a
// valid EOCD record can possibly sit from the end of the file: its own 22
// fixed bytes plus the largest possible comment (65535 bytes, since the
// comment length is a u16).
const maxEOCDScan = 22 + 65535

// offsetCacheSize is the tinylfu admission-window size for the resolved
// local-header data-offset cache; small archives fit entirely, large ones
// keep their hottest entries.
const offsetCacheSize = 512

// Archive is an opened ZIP file: a loaded central directory over a
// random-access byte source.
type Archive struct {
	br      *byteio.Reader
	entries []*FileHeader

	nameIndex map[uint64][]int // xxhash(name) -> candidate entry indices

	offsetCache *tinylfu.T[int, int64] // entry index -> resolved data offset
	cacheMu     sync.Mutex

	busy atomic.Bool // true while an EntryReader is live
}

// OpenArchive locates the End of Central Directory record in r (which holds
// exactly size bytes) and loads the central directory it describes.
func OpenArchive(r io.ReaderAt, size int64) (*Archive, error) {
	br := byteio.New(r, size)

	eocd, err := findEOCD(br)
	if err != nil {
		return nil, err
	}

	a := &Archive{
		br:          br,
		nameIndex:   make(map[uint64][]int),
		offsetCache: tinylfu.New[int, int64](offsetCacheSize, offsetCacheSize*10, func(k int) uint64 { return uint64(k) }),
	}

	br.SetOffset(int64(eocd.centralDirOffset))
	for i := 0; i < int(eocd.entriesInCentralDir); i++ {
		fh := &FileHeader{}
		if _, err := structure.Parse(br, fh); err != nil {
			return nil, fmt.Errorf("%w: central directory entry %d: %v", ErrInvalidData, i, err)
		}
		a.nameIndex[xxhash.Sum64String(fh.name)] = append(a.nameIndex[xxhash.Sum64String(fh.name)], i)
		a.entries = append(a.entries, fh)
	}

	return a, nil
}

// findEOCD scans backward from the end of the archive for a valid End of
// Central Directory record, preferring the last (rightmost) candidate whose
// stated central directory lies entirely before it — defeating a decoy
// signature embedded in an earlier comment.
func findEOCD(br *byteio.Reader) (*eocdRecord, error) {
	size := br.Len()
	if size < int64(4+eocdFixedLen) {
		return nil, ErrNotFound
	}

	lowest := int64(0)
	if size-maxEOCDScan > 0 {
		lowest = size - maxEOCDScan
	}

	for pos := size - int64(4+eocdFixedLen); pos >= lowest; pos-- {
		br.SetOffset(pos)
		rec := &eocdRecord{}
		n, err := structure.Parse(br, rec)
		if err != nil {
			continue
		}
		if pos+n != size {
			continue // comment length field doesn't reach exactly to EOF
		}
		if int64(rec.centralDirOffset)+int64(rec.centralDirSize) > pos {
			continue // inconsistent: can't be the real directory trailer
		}
		// Positions are tried from the end of the file backward, so the
		// first consistent match is the rightmost one: the scan wants the
		// real trailer, not a decoy signature embedded earlier in a comment.
		return rec, nil
	}
	return nil, ErrNotFound
}

// EntryCount returns the number of entries in the central directory.
func (a *Archive) EntryCount() int { return len(a.entries) }

// Entry returns the metadata for entry i.
func (a *Archive) Entry(i int) (*FileHeader, error) {
	if i < 0 || i >= len(a.entries) {
		return nil, ErrOutOfRange
	}
	return a.entries[i], nil
}

// IndexByName returns the entry index whose name matches exactly, or
// ErrNotFound. Lookup is average O(1) via a name hash index; a hash
// collision is resolved by comparing the candidates' actual names.
func (a *Archive) IndexByName(name string) (int, error) {
	for _, i := range a.nameIndex[xxhash.Sum64String(name)] {
		if a.entries[i].name == name {
			return i, nil
		}
	}
	return 0, ErrNotFound
}

// Glob returns the indices of entries whose name matches the given
// doublestar pattern (supporting "**" for recursive matches).
func (a *Archive) Glob(pattern string) ([]int, error) {
	var out []int
	for i, e := range a.entries {
		ok, err := doublestar.Match(pattern, e.name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, i)
		}
	}
	return out, nil
}

// resolveDataOffset returns the absolute offset of entry i's compressed
// data, re-reading its local file header the first time (since the local
// header's variable-length fields can differ from the central header's) and
// caching the result thereafter.
func (a *Archive) resolveDataOffset(i int) (int64, error) {
	a.cacheMu.Lock()
	if off, ok := a.offsetCache.Get(i); ok {
		a.cacheMu.Unlock()
		return off, nil
	}
	a.cacheMu.Unlock()

	fh := a.entries[i]
	lr := byteio.New(a.br.Source(), a.br.Len())
	lr.SetOffset(int64(fh.localHeaderOffset))
	lh := &localFileHeader{}
	n, err := structure.Parse(lr, lh)
	if err != nil {
		return 0, fmt.Errorf("%w: local header for entry %d: %v", ErrInvalidData, i, err)
	}
	dataOffset := int64(fh.localHeaderOffset) + n

	a.cacheMu.Lock()
	a.offsetCache.Add(i, dataOffset)
	a.cacheMu.Unlock()
	return dataOffset, nil
}

// EntryAt opens entry i for reading. Only one EntryReader may be live on an
// Archive at a time; the returned reader must be Closed before another
// EntryAt call will succeed.
func (a *Archive) EntryAt(i int) (*EntryReader, error) {
	fh, err := a.Entry(i)
	if err != nil {
		return nil, err
	}
	if fh.Encrypted() {
		return nil, fmt.Errorf("%w: entry %d is encrypted", ErrUnsupported, i)
	}
	if fh.method != methodStored && fh.method != methodDeflate {
		return nil, fmt.Errorf("%w: entry %d uses compression method %d", ErrUnsupported, i, fh.method)
	}

	dataOffset, err := a.resolveDataOffset(i)
	if err != nil {
		return nil, err
	}

	if !a.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	section := io.NewSectionReader(a.br.Source(), dataOffset, fh.CompressedSize())
	return newEntryReader(a, fh, section), nil
}

// VerifyCRC re-reads and fully decompresses entry i, returning whether its
// CRC-32 matches the value recorded in the central directory.
func (a *Archive) VerifyCRC(i int) (bool, error) {
	fh, err := a.Entry(i)
	if err != nil {
		return false, err
	}
	if fh.Encrypted() || (fh.method != methodStored && fh.method != methodDeflate) {
		return false, ErrUnsupported
	}

	dataOffset, err := a.resolveDataOffset(i)
	if err != nil {
		return false, err
	}

	// Independent of the archive's shared cursor and exclusive-borrow
	// EntryReader: io.SectionReader over the shared io.ReaderAt is safe for
	// concurrent use, which is what lets VerifyAll fan this out.
	section := io.NewSectionReader(a.br.Source(), dataOffset, fh.CompressedSize())
	var src io.Reader = section
	if fh.method == methodDeflate {
		src = newInflateReader(section)
	}

	sum, err := checksumReader(src)
	if err != nil {
		return false, err
	}
	return sum == fh.crc32, nil
}

// VerifyAll runs VerifyCRC over every entry concurrently and returns the
// first non-checksum error any entry reports. An entry is skipped if ctx is
// canceled or another entry has already failed before its verification
// starts; a verification already under way runs to completion.
func (a *Archive) VerifyAll(ctx context.Context) ([]bool, error) {
	results := make([]bool, len(a.entries))
	g, gctx := errgroup.WithContext(ctx)
	for i := range a.entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ok, err := a.VerifyCRC(i)
			if err != nil {
				return err
			}
			results[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// release is called by EntryReader.Close to give up the exclusive borrow.
func (a *Archive) release() { a.busy.Store(false) }
