// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flate implements a streaming RFC 1951 DEFLATE decompressor built
// from three smaller pieces: a bit-level reader (internal/bitio), canonical
// Huffman code tables (internal/huffman), and a 32 KiB sliding output window
// (internal/window). Reader drives those three through the stored/fixed/
// dynamic block state machine described by the RFC.
package flate

import (
	"errors"
	"io"
	"sync"

	"github.com/gozipflate/gozipflate/internal/bitio"
	"github.com/gozipflate/gozipflate/internal/huffman"
	"github.com/gozipflate/gozipflate/internal/window"
)

// ErrCorrupt reports any violation of DEFLATE's structural rules: a bad
// block type, a LEN/NLEN mismatch, an undecodable Huffman code, an
// out-of-range length/distance symbol, or code-length symbol 16 with no
// preceding length to repeat. Once returned, the Reader is not usable for
// further reads.
var ErrCorrupt = errors.New("flate: corrupt input")

const endOfBlock = 256

type blockState int

const (
	stateIdle blockState = iota
	stateStored
	stateHuffman
	stateDone
)

type pendingCopy struct {
	distance int
	length   int
}

// Reader decompresses a single DEFLATE stream read from an underlying
// [io.Reader].
type Reader struct {
	br     *bitio.Reader
	win    *window.Window
	state  blockState
	isLast bool

	storedRemain int

	lit, dist *huffman.Table
	pending   *pendingCopy

	err error // sticky, once the stream is judged corrupt
}

// NewReader returns a Reader decompressing r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bitio.NewReader(r), win: window.New()}
}

// Read implements [io.Reader]. It returns whenever buf is full, the final
// block's end-of-block marker has been consumed (in which case later calls
// return 0, io.EOF), or the underlying reader reports an error. Partial
// reads are permitted at any block boundary or mid-backreference.
func (f *Reader) Read(buf []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for n < len(buf) {
		switch f.state {
		case stateDone:
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil

		case stateIdle:
			if err := f.startBlock(); err != nil {
				return n, f.fail(err)
			}

		case stateStored:
			want := len(buf) - n
			if want > f.storedRemain {
				want = f.storedRemain
			}
			if want > 0 {
				got, err := f.br.ReadAlignedInto(buf[n : n+want])
				f.win.PushSlice(buf[n : n+got])
				n += got
				f.storedRemain -= got
				if err != nil {
					return n, f.fail(err)
				}
			}
			if f.storedRemain == 0 {
				f.endBlock()
			}

		case stateHuffman:
			if f.pending != nil {
				want := len(buf) - n
				if want > f.pending.length {
					want = f.pending.length
				}
				first, second := f.win.Backreference(f.pending.distance, want)
				n += copy(buf[n:], first)
				n += copy(buf[n:], second)
				f.pending.length -= want
				if f.pending.length == 0 {
					f.pending = nil
				}
				continue
			}

			sym, err := f.lit.Decode(f.br)
			if err != nil {
				return n, f.fail(err)
			}
			switch {
			case sym < endOfBlock:
				f.win.Push(byte(sym))
				buf[n] = byte(sym)
				n++
			case sym == endOfBlock:
				f.endBlock()
			default:
				length, err := decodeLength(sym, f.br)
				if err != nil {
					return n, f.fail(err)
				}
				distSym, err := f.dist.Decode(f.br)
				if err != nil {
					return n, f.fail(err)
				}
				distance, err := decodeDistance(distSym, f.br)
				if err != nil {
					return n, f.fail(err)
				}
				if distance > window.Size {
					return n, f.fail(ErrCorrupt)
				}
				f.pending = &pendingCopy{distance: distance, length: length}
			}
		}
	}
	return n, nil
}

func (f *Reader) fail(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if errors.Is(err, huffman.ErrCorrupt) {
		err = ErrCorrupt
	}
	if f.err == nil {
		f.err = err
	}
	return f.err
}

func (f *Reader) endBlock() {
	if f.isLast {
		f.state = stateDone
	} else {
		f.state = stateIdle
	}
}

func (f *Reader) startBlock() error {
	hdr, err := f.br.ReadBits(3)
	if err != nil {
		return err
	}
	f.isLast = hdr&1 == 1
	switch (hdr >> 1) & 3 {
	case 0:
		return f.startStoredBlock()
	case 1:
		f.lit, f.dist = fixedTables()
		f.state = stateHuffman
	case 2:
		lit, dist, err := f.readDynamicTables()
		if err != nil {
			return err
		}
		f.lit, f.dist = lit, dist
		f.state = stateHuffman
	default:
		return ErrCorrupt
	}
	return nil
}

func (f *Reader) startStoredBlock() error {
	f.br.SkipToByteBoundary()
	length, err := f.br.ReadAlignedU16LE()
	if err != nil {
		return err
	}
	nlength, err := f.br.ReadAlignedU16LE()
	if err != nil {
		return err
	}
	if length != ^nlength {
		return ErrCorrupt
	}
	f.storedRemain = int(length)
	f.state = stateStored
	if f.storedRemain == 0 {
		f.endBlock()
	}
	return nil
}

var codeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

func (f *Reader) readDynamicTables() (*huffman.Table, *huffman.Table, error) {
	hlitBits, err := f.br.ReadBits(5)
	if err != nil {
		return nil, nil, err
	}
	hlit := int(hlitBits) + 257

	hdistBits, err := f.br.ReadBits(5)
	if err != nil {
		return nil, nil, err
	}
	hdist := int(hdistBits) + 1

	hclenBits, err := f.br.ReadBits(4)
	if err != nil {
		return nil, nil, err
	}
	hclen := int(hclenBits) + 4

	var clLengths [19]int
	for i := 0; i < hclen; i++ {
		v, err := f.br.ReadBits(3)
		if err != nil {
			return nil, nil, err
		}
		clLengths[codeLengthOrder[i]] = int(v)
	}
	clTable, err := huffman.Build(clLengths[:])
	if err != nil {
		return nil, nil, ErrCorrupt
	}

	total := hlit + hdist
	lengths := make([]int, total)
	for i := 0; i < total; {
		sym, err := clTable.Decode(f.br)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case sym < 16:
			lengths[i] = sym
			i++
		case sym == 16:
			if i == 0 {
				return nil, nil, ErrCorrupt
			}
			extra, err := f.br.ReadBits(2)
			if err != nil {
				return nil, nil, err
			}
			rep := 3 + int(extra)
			if i+rep > total {
				return nil, nil, ErrCorrupt
			}
			prev := lengths[i-1]
			for j := 0; j < rep; j++ {
				lengths[i] = prev
				i++
			}
		case sym == 17:
			extra, err := f.br.ReadBits(3)
			if err != nil {
				return nil, nil, err
			}
			rep := 3 + int(extra)
			if i+rep > total {
				return nil, nil, ErrCorrupt
			}
			i += rep
		case sym == 18:
			extra, err := f.br.ReadBits(7)
			if err != nil {
				return nil, nil, err
			}
			rep := 11 + int(extra)
			if i+rep > total {
				return nil, nil, ErrCorrupt
			}
			i += rep
		default:
			return nil, nil, ErrCorrupt
		}
	}

	litTable, err := huffman.Build(lengths[:hlit])
	if err != nil {
		return nil, nil, ErrCorrupt
	}
	distTable, err := huffman.Build(lengths[hlit:])
	if err != nil {
		return nil, nil, ErrCorrupt
	}
	return litTable, distTable, nil
}

var fixedOnce sync.Once
var fixedLit, fixedDist *huffman.Table

// fixedTables lazily builds and caches the RFC 3.2.6 fixed Huffman tables.
func fixedTables() (*huffman.Table, *huffman.Table) {
	fixedOnce.Do(func() {
		var lit [288]int
		for i := 0; i < 144; i++ {
			lit[i] = 8
		}
		for i := 144; i < 256; i++ {
			lit[i] = 9
		}
		for i := 256; i < 280; i++ {
			lit[i] = 7
		}
		for i := 280; i < 288; i++ {
			lit[i] = 8
		}
		fixedLit, _ = huffman.Build(lit[:])

		// All 32 five-bit distance codes take part in the fixed code, even
		// though symbols 30 and 31 never occur in valid data.
		var dist [32]int
		for i := range dist {
			dist[i] = 5
		}
		fixedDist, _ = huffman.Build(dist[:])
	})
	return fixedLit, fixedDist
}
