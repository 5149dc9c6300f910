// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flate

import "github.com/gozipflate/gozipflate/internal/bitio"

// lengthBase and lengthExtra implement RFC 1951 §3.2.5's length table: symbol
// 257 encodes a length of 3 with no extra bits, symbol 285 encodes a length
// of 258 with no extra bits, and everything between adds the value of a few
// extra bits read from the stream to a symbol-specific base.
var lengthBase = [29]int{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13,
	15, 17, 19, 23, 27, 31, 35, 43, 51, 59,
	67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtra = [29]uint{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
	1, 1, 2, 2, 2, 2, 3, 3, 3, 3,
	4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// distBase and distExtra implement the §3.2.5 distance table.
var distBase = [30]int{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25,
	33, 49, 65, 97, 129, 193, 257, 385, 513, 769,
	1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

var distExtra = [30]uint{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

func decodeLength(sym int, r *bitio.Reader) (int, error) {
	idx := sym - 257
	if idx < 0 || idx >= len(lengthBase) {
		return 0, ErrCorrupt
	}
	n := lengthExtra[idx]
	if n == 0 {
		return lengthBase[idx], nil
	}
	extra, err := r.ReadBits(n)
	if err != nil {
		return 0, err
	}
	return lengthBase[idx] + int(extra), nil
}

func decodeDistance(sym int, r *bitio.Reader) (int, error) {
	if sym < 0 || sym >= len(distBase) {
		return 0, ErrCorrupt
	}
	n := distExtra[sym]
	if n == 0 {
		return distBase[sym], nil
	}
	extra, err := r.ReadBits(n)
	if err != nil {
		return 0, err
	}
	return distBase[sym] + int(extra), nil
}
