// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package huffman builds and decodes canonical Huffman code tables as used
// by RFC 1951 DEFLATE: literal/length alphabets, distance alphabets, and the
// small code-length alphabet used to compress the other two.
//
// A table splits codes into two tiers: codes of length <= directBits are
// expanded into every matching slot of a direct lookup table (so decoding
// one symbol is a single peek-and-index), and longer codes fall back to a
// map keyed by the code with a leading sentinel bit, which disambiguates
// codes of different lengths that share a low-order bit prefix.
package huffman

import (
	"errors"
	"math/bits"

	"github.com/gozipflate/gozipflate/internal/bitio"
)

// ErrCorrupt reports a structurally invalid Huffman code table or an
// undecodable bit sequence.
var ErrCorrupt = errors.New("huffman: corrupt code table")

const (
	maxCodeLen = 15
	directBits = 10
	directSize = 1 << directBits
)

type entry struct {
	symbol uint16
	length uint8 // 0 means the slot is unoccupied
}

// Table is a canonical Huffman decode table built from an array of per-symbol
// code lengths.
type Table struct {
	direct [directSize]entry
	long   map[uint32]entry
}

// Build constructs a Table from lengths, where lengths[symbol] is that
// symbol's code length in 1..=15, or 0 if the symbol is unused. An empty
// table (every length 0) is permitted and simply never decodes.
func Build(lengths []int) (*Table, error) {
	var blCount [maxCodeLen + 1]int
	maxLen := 0
	used := 0
	var lastUsedSymbol, lastUsedLen int
	for sym, n := range lengths {
		if n == 0 {
			continue
		}
		if n < 0 || n > maxCodeLen {
			return nil, ErrCorrupt
		}
		blCount[n]++
		used++
		lastUsedSymbol, lastUsedLen = sym, n
		if n > maxLen {
			maxLen = n
		}
	}

	t := &Table{}
	if used == 0 {
		return t, nil
	}

	// The RFC permits a degenerate single-code alphabet (used for the
	// distance tree when only one distance value ever occurs); there's no
	// second codeword to reserve space for, so every lookup slot that would
	// otherwise stay empty is padded with the lone symbol instead. In
	// practice this only arises with a 1-bit code (HDIST == 1), which is
	// the case the direct table can represent.
	if used == 1 && lastUsedLen <= directBits {
		t.fillAll(entry{symbol: uint16(lastUsedSymbol), length: uint8(lastUsedLen)})
		return t, nil
	}

	var nextCode [maxCodeLen + 1]int
	code := 0
	blCount[0] = 0
	for n := 1; n <= maxLen; n++ {
		code = (code + blCount[n-1]) << 1
		nextCode[n] = code
	}
	// In a complete canonical code the last codeword of length maxLen is
	// 2^maxLen - 1, so the next unassigned code is exactly 2^maxLen.
	finalCode := nextCode[maxLen] + blCount[maxLen]
	if finalCode != 1<<uint(maxLen) {
		return nil, ErrCorrupt
	}

	for sym, n := range lengths {
		if n == 0 {
			continue
		}
		c := nextCode[n]
		nextCode[n]++

		reversed := int(bits.Reverse16(uint16(c))) >> (16 - n)
		e := entry{symbol: uint16(sym), length: uint8(n)}

		if n <= directBits {
			step := 1 << uint(n)
			for idx := reversed; idx < directSize; idx += step {
				t.direct[idx] = e
			}
		} else {
			if t.long == nil {
				t.long = make(map[uint32]entry)
			}
			key := uint32(reversed) | 1<<uint(n)
			t.long[key] = e
		}
	}

	return t, nil
}

func (t *Table) fillAll(e entry) {
	for i := range t.direct {
		t.direct[i] = e
	}
}

// Decode reads and consumes one symbol from r.
func (t *Table) Decode(r *bitio.Reader) (int, error) {
	peek := r.PeekBits(directBits)
	if e := t.direct[peek]; e.length != 0 {
		if err := r.Consume(uint(e.length)); err != nil {
			return 0, err
		}
		return int(e.symbol), nil
	}

	for n := uint(directBits + 1); n <= maxCodeLen; n++ {
		code := r.PeekBits(n)
		key := uint32(code) | 1<<n
		if e, ok := t.long[key]; ok {
			if err := r.Consume(uint(e.length)); err != nil {
				return 0, err
			}
			return int(e.symbol), nil
		}
	}
	return 0, ErrCorrupt
}
