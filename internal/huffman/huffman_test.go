package huffman

import (
	"bytes"
	"testing"

	"github.com/gozipflate/gozipflate/internal/bitio"
)

// reversedCodeFor returns the bitstream pattern (as fed LSB-first) for symbol
// sym in the balanced 8-symbol, all-length-3 canonical code used below.
var reversedCodeFor = map[int]byte{0: 0, 1: 4, 2: 2, 3: 6, 4: 1, 5: 5, 6: 3, 7: 7}

func TestBuildAndDecodeBalancedCode(t *testing.T) {
	lengths := []int{3, 3, 3, 3, 3, 3, 3, 3}
	table, err := Build(lengths)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for sym, pattern := range reversedCodeFor {
		r := bitio.NewReader(bytes.NewReader([]byte{pattern}))
		got, err := table.Decode(r)
		if err != nil {
			t.Fatalf("symbol %d: Decode: %v", sym, err)
		}
		if got != sym {
			t.Fatalf("symbol %d: Decode returned %d", sym, got)
		}
	}
}

func TestBuildIncompleteCodeFails(t *testing.T) {
	// Three symbols of length 2 can never be a complete canonical code
	// (needs a 4th to fill the tree, or shorter lengths elsewhere).
	if _, err := Build([]int{2, 2, 2}); err == nil {
		t.Fatal("Build: expected error for incomplete code, got nil")
	}
}

func TestSingleCodeDegenerate(t *testing.T) {
	// RFC 1951 permits an alphabet with exactly one used code (notably the
	// distance tree when only one distance ever occurs); it has no sibling
	// to complete a tree with, so every lookup slot is padded with it.
	table, err := Build([]int{1})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := bitio.NewReader(bytes.NewReader([]byte{0xFF, 0xFF}))
	for i := 0; i < 4; i++ {
		sym, err := table.Decode(r)
		if err != nil || sym != 0 {
			t.Fatalf("Decode #%d = %d, %v, want 0, nil", i, sym, err)
		}
	}
}

func TestEmptyTableNeverDecodes(t *testing.T) {
	table, err := Build([]int{0, 0, 0})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := bitio.NewReader(bytes.NewReader([]byte{0x00, 0x00}))
	if _, err := table.Decode(r); err == nil {
		t.Fatal("Decode on an all-unused table should fail")
	}
}

func TestLongCodeOverflowsToMap(t *testing.T) {
	// A length-11 code must live in the long-code map, not the direct table.
	lengths := make([]int, 1<<11)
	for i := range lengths {
		lengths[i] = 11
	}
	table, err := Build(lengths)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(table.long) == 0 {
		t.Fatal("expected codes of length 11 to populate the long-code map")
	}
}
