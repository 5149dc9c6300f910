package flate

import (
	"bytes"
	compressflate "compress/flate"
	"io"
	"math/rand"
	"testing"
)

func deflate(t *testing.T, level int, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := compressflate.NewWriter(&buf, level)
	if err != nil {
		t.Fatalf("compress/flate.NewWriter: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func assertRoundTrip(t *testing.T, data []byte, level int) {
	t.Helper()
	compressed := deflate(t, level, data)
	r := NewReader(bytes.NewReader(compressed))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, data) {
		if len(got) != len(data) {
			t.Fatalf("length mismatch: got %d, want %d", len(got), len(data))
		}
		for i := range got {
			if got[i] != data[i] {
				t.Fatalf("first mismatch at byte %d: got %02x, want %02x", i, got[i], data[i])
			}
		}
	}
}

func TestRoundTripStoredBlock(t *testing.T) {
	// level 0 (NoCompression) in compress/flate emits stored blocks.
	assertRoundTrip(t, []byte("Hello, World!"), compressflate.NoCompression)
}

func TestRoundTripEmptyStoredBlock(t *testing.T) {
	assertRoundTrip(t, []byte{}, compressflate.NoCompression)
}

func TestRoundTripFixedHuffman(t *testing.T) {
	// At BestCompression, compress/flate encodes this short, highly
	// repetitive input as a single fixed-Huffman block.
	assertRoundTrip(t, bytes.Repeat([]byte("ab"), 20), compressflate.BestCompression)
}

func TestRoundTripRunOfOneByte(t *testing.T) {
	// 300 repeats of a single byte forces a long backreference with
	// distance 1, the SlidingWindow's memset fast path.
	assertRoundTrip(t, bytes.Repeat([]byte{0x41}, 300), compressflate.BestCompression)
}

func TestRoundTripLongZeroRunInLiteralAlphabet(t *testing.T) {
	// A literal alphabet where most of the 256 byte values never appear
	// forces the code-length encoder to emit long runs of code-length 0,
	// exercising symbol 18 (zero-run, up to 138 repeats) in readDynamicTables.
	rng := rand.New(rand.NewSource(3))
	data := make([]byte, 1<<15)
	for i := range data {
		// Only 3 distinct byte values ever occur, so ~253 of the 256
		// possible literal codes are unused and the lengths array is
		// dominated by long zero stretches.
		data[i] = byte(rng.Intn(3))
	}
	assertRoundTrip(t, data, compressflate.BestCompression)
}

func TestRoundTripDynamicHuffman(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := make([]byte, 1<<16)
	for i := range data {
		// Skewed byte distribution favors a dynamic Huffman table over
		// fixed.
		if i%7 == 0 {
			data[i] = byte(rng.Intn(4))
		} else {
			data[i] = 'z'
		}
	}
	assertRoundTrip(t, data, compressflate.BestCompression)
}

func TestRoundTripAcrossWindowBoundary(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	data := make([]byte, 5*32768+777)
	for i := range data {
		data[i] = byte(rng.Intn(3))
	}
	assertRoundTrip(t, data, compressflate.BestCompression)
}

func TestPartialReadsAcrossBlockBoundaries(t *testing.T) {
	data := bytes.Repeat([]byte("The quick brown fox jumps over the lazy dog. "), 500)
	compressed := deflate(t, compressflate.BestCompression, data)
	r := NewReader(bytes.NewReader(compressed))

	var got bytes.Buffer
	tiny := make([]byte, 3)
	for {
		n, err := r.Read(tiny)
		got.Write(tiny[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if !bytes.Equal(got.Bytes(), data) {
		t.Fatalf("partial-read round trip mismatch: got %d bytes, want %d", got.Len(), len(data))
	}
}

func TestCorruptBlockTypeIsRejected(t *testing.T) {
	// A single byte whose low 3 bits are 111: last-block=1, type=11 (reserved).
	r := NewReader(bytes.NewReader([]byte{0b111}))
	_, err := io.ReadAll(r)
	if err == nil {
		t.Fatal("expected an error decoding a reserved block type")
	}
}

func TestStoredBlockLenMismatchIsRejected(t *testing.T) {
	// last-block=1, type=00 (stored), then LEN=5, NLEN=5 (should be ^5).
	buf := []byte{0b001, 5, 0, 5, 0}
	r := NewReader(bytes.NewReader(buf))
	_, err := io.ReadAll(r)
	if err == nil {
		t.Fatal("expected an error for LEN != ^NLEN")
	}
}
