package zip

import (
	"encoding/binary"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeName decodes a raw entry-name byte string per flag bit 11: UTF-8 if
// set (with invalid sequences replaced by U+FFFD, matching the standard
// decoder's lenient behavior), otherwise legacy CP437.
func decodeName(raw []byte, isUTF8 bool) string {
	if isUTF8 {
		return decodeLenientUTF8(raw)
	}
	return decodeCP437(raw)
}

func decodeLenientUTF8(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var b strings.Builder
	b.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		b.WriteRune(r)
		raw = raw[size:]
	}
	return b.String()
}

// decodeCP437 maps bytes 0x80-0xFF through the legacy DOS code page; ASCII
// bytes pass through unchanged.
func decodeCP437(raw []byte) string {
	decoded, err := charmap.CodePage437.NewDecoder().Bytes(raw)
	if err != nil {
		// charmap.CodePage437 maps every byte value, so this path is
		// unreachable in practice; fall back to the raw bytes rather than
		// lose data.
		return string(raw)
	}
	return string(decoded)
}

// msDOSToTime unpacks the standard MS-DOS date/time bitfields: date bits
// 0-4 day, 5-8 month, 9-15 years since 1980; time bits 0-4 seconds/2, 5-10
// minutes, 11-15 hours. 2-second resolution.
func msDOSToTime(dosDate, dosTime uint16) time.Time {
	return time.Date(
		int(dosDate>>9)+1980,
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),
		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f)*2,
		0,
		time.UTC,
	)
}

// timeFromExtraField decodes one of the common timestamp extra fields,
// returning the zero Time if kind isn't recognized or the payload is too
// short to contain a timestamp.
func timeFromExtraField(kind uint16, data []byte) time.Time {
	switch kind {
	case extraNTFS:
		if len(data) < 4 {
			return time.Time{}
		}
		subfields := parseExtraFields(data[4:])
		times, ok := subfields[1]
		if !ok || len(times) < 8 {
			return time.Time{}
		}
		const ticksPerSecond = 1e7
		ts := int64(binary.LittleEndian.Uint64(times))
		secs := ts / ticksPerSecond
		nsecs := (1e9 / ticksPerSecond) * (ts % ticksPerSecond)
		epoch := time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)
		return time.Unix(epoch.Unix()+secs, nsecs)
	case extraUnix, extraInfoZipUN:
		if len(data) < 8 {
			return time.Time{}
		}
		return time.Unix(int64(binary.LittleEndian.Uint32(data[4:])), 0)
	case extraInfoZipTS:
		if len(data) < 5 || data[0]&1 == 0 {
			return time.Time{}
		}
		return time.Unix(int64(binary.LittleEndian.Uint32(data[1:])), 0)
	}
	return time.Time{}
}
