// Package structure provides a small generic protocol for parsing the
// fixed-then-variable-length records a ZIP archive is built from (the End of
// Central Directory record, central and local file headers, and extensible
// data fields), each with its own 4-byte signature rule.
package structure

import (
	"errors"
	"io"

	"github.com/gozipflate/gozipflate/internal/byteio"
)

// SignatureMode describes whether, and how strictly, a record is expected
// to begin with a 4-byte little-endian magic number.
type SignatureMode int

const (
	// NoSignature records have no leading magic number.
	NoSignature SignatureMode = iota
	// RequiredSignature records must begin with the given magic number; a
	// mismatch is a parse failure.
	RequiredSignature
	// OptionalSignature records begin with the magic number if present;
	// if the next 4 bytes don't match, none are consumed and ParseData
	// starts parsing from the original position.
	OptionalSignature
)

// ErrSignatureMismatch reports that a record requiring a fixed signature
// did not have one at the current position.
var ErrSignatureMismatch = errors.New("structure: signature mismatch")

// Record is one parsable ZIP record shape. FixedLen is the size of the
// payload following any signature. ParseData reads that fixed payload plus
// whatever variable-length tail the record defines (names, extras,
// comments), using length fields it read from the fixed payload.
type Record interface {
	FixedLen() int
	Signature() (SignatureMode, uint32)
	ParseData(r *byteio.Reader) error
}

// Parse attempts to parse rec at r's current offset. On any failure, r's
// offset is restored to where parsing began, so callers (notably the EOCD
// backward scan) can retry at a different position. On success it returns
// the number of bytes consumed.
func Parse(r *byteio.Reader, rec Record) (int64, error) {
	start := r.Offset()

	mode, magic := rec.Signature()
	need := int64(rec.FixedLen())
	if mode != NoSignature {
		need += 4
	}
	if r.Remaining() < need {
		return 0, io.ErrUnexpectedEOF
	}

	if mode != NoSignature {
		sig, err := r.ReadLeU32()
		if err != nil {
			r.SetOffset(start)
			return 0, err
		}
		if sig != magic {
			if mode == RequiredSignature {
				r.SetOffset(start)
				return 0, ErrSignatureMismatch
			}
			// Optional and absent: rewind so ParseData sees the bytes it
			// mistook for a signature.
			r.SetOffset(start)
		}
	}

	if err := rec.ParseData(r); err != nil {
		r.SetOffset(start)
		return 0, err
	}
	return r.Offset() - start, nil
}
