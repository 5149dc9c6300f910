package bitio

import (
	"bytes"
	"io"
	"testing"
)

func TestReadBits(t *testing.T) {
	// 0b10110010, 0b00000001 -- LSB-first means the stream reads
	// 0,1,0,0,1,1,0,1, 1,0,0,0,0,0,0,0
	buf := []byte{0b10110010, 0b00000001}
	r := NewReader(bytes.NewReader(buf))

	v, err := r.ReadBits(4)
	if err != nil || v != 0b0010 {
		t.Fatalf("ReadBits(4) = %v, %v, want 0b0010, nil", v, err)
	}
	v, err = r.ReadBits(4)
	if err != nil || v != 0b1011 {
		t.Fatalf("ReadBits(4) = %v, %v, want 0b1011, nil", v, err)
	}
	v, err = r.ReadBits(8)
	if err != nil || v != 1 {
		t.Fatalf("ReadBits(8) = %v, %v, want 1, nil", v, err)
	}
	if _, err := r.ReadBits(1); err != io.ErrUnexpectedEOF {
		t.Fatalf("ReadBits past EOF = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestPeekThenConsume(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0b01010101}))
	peeked := r.PeekBits(3)
	if peeked2 := r.PeekBits(3); peeked2 != peeked {
		t.Fatalf("PeekBits not idempotent: %v != %v", peeked, peeked2)
	}
	if err := r.Consume(3); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	rest, err := r.ReadBits(5)
	if err != nil {
		t.Fatalf("ReadBits: %v", err)
	}
	if (peeked | rest<<3) != 0b01010101 {
		t.Fatalf("bits don't reassemble: peeked=%03b rest=%05b", peeked, rest)
	}
}

func TestPeekBitsPastEOFIsZeroPadded(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xFF}))
	if err := r.Consume(0); err != nil {
		t.Fatal(err)
	}
	v := r.PeekBits(16)
	if v&0xFF00 != 0 {
		t.Fatalf("PeekBits past EOF = %016b, want high byte zero", v)
	}
	if err := r.Consume(16); err == nil {
		t.Fatal("Consume(16) over only 8 real bits should fail")
	}
}

func TestAlignedReads(t *testing.T) {
	buf := []byte{0b00000011, 0x34, 0x12, 0xAA, 0xBB}
	r := NewReader(bytes.NewReader(buf))

	if _, err := r.ReadBits(2); err != nil {
		t.Fatal(err)
	}
	r.SkipToByteBoundary()
	v, err := r.ReadAlignedU16LE()
	if err != nil || v != 0x1234 {
		t.Fatalf("ReadAlignedU16LE = %#x, %v, want 0x1234, nil", v, err)
	}
	out := make([]byte, 2)
	n, err := r.ReadAlignedInto(out)
	if err != nil || n != 2 || !bytes.Equal(out, []byte{0xAA, 0xBB}) {
		t.Fatalf("ReadAlignedInto = %v, %d, %v", out, n, err)
	}
}
