package zip

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/gozipflate/gozipflate/internal/byteio"
	"github.com/gozipflate/gozipflate/internal/structure"
)

const (
	sigEOCD         = 0x06054b50
	sigCentralHdr   = 0x02014b50
	sigLocalHdr     = 0x04034b50
	eocdFixedLen    = 18
	centralFixedLen = 42
	localFixedLen   = 26

	flagUTF8       = 1 << 11
	flagEncrypted  = 1 << 0
	methodStored   = 0
	methodDeflate  = 8
	extraZip64     = 0x0001
	extraNTFS      = 0x000a
	extraUnix      = 0x000d
	extraInfoZipUN = 0x5855
	extraInfoZipTS = 0x5455
)

// eocdRecord is the parsed End of Central Directory payload.
type eocdRecord struct {
	diskNumber          uint16
	centralDirStartDisk uint16
	entriesOnThisDisk   uint16
	entriesInCentralDir uint16
	centralDirSize      uint32
	centralDirOffset    uint32
	comment             []byte
}

func (e *eocdRecord) FixedLen() int { return eocdFixedLen }

func (e *eocdRecord) Signature() (structure.SignatureMode, uint32) {
	return structure.RequiredSignature, sigEOCD
}

func (e *eocdRecord) ParseData(r *byteio.Reader) error {
	var err error
	if e.diskNumber, err = r.ReadLeU16(); err != nil {
		return err
	}
	if e.centralDirStartDisk, err = r.ReadLeU16(); err != nil {
		return err
	}
	if e.entriesOnThisDisk, err = r.ReadLeU16(); err != nil {
		return err
	}
	if e.entriesInCentralDir, err = r.ReadLeU16(); err != nil {
		return err
	}
	if e.centralDirSize, err = r.ReadLeU32(); err != nil {
		return err
	}
	if e.centralDirOffset, err = r.ReadLeU32(); err != nil {
		return err
	}
	commentLen, err := r.ReadLeU16()
	if err != nil {
		return err
	}
	e.comment, err = r.ReadIntoVec(int(commentLen))
	return err
}

// FileHeader is one central-directory entry: a file or directory's full
// metadata, independent of whether its data has been opened.
type FileHeader struct {
	versionMadeBy     uint16
	versionNeeded     uint16
	flags             uint16
	method            uint16
	modTime           uint16
	modDate           uint16
	crc32             uint32
	compressedSize    uint32
	uncompressedSize  uint32
	diskNumber        uint16
	internalAttrs     uint16
	externalAttrs     uint32
	localHeaderOffset uint32
	rawName           []byte
	extra             map[uint16][]byte
	comment           []byte

	name  string
	isDir bool
}

func (h *FileHeader) FixedLen() int { return centralFixedLen }

func (h *FileHeader) Signature() (structure.SignatureMode, uint32) {
	return structure.RequiredSignature, sigCentralHdr
}

func (h *FileHeader) ParseData(r *byteio.Reader) error {
	var err error
	if h.versionMadeBy, err = r.ReadLeU16(); err != nil {
		return err
	}
	if h.versionNeeded, err = r.ReadLeU16(); err != nil {
		return err
	}
	if h.flags, err = r.ReadLeU16(); err != nil {
		return err
	}
	if h.method, err = r.ReadLeU16(); err != nil {
		return err
	}
	if h.modTime, err = r.ReadLeU16(); err != nil {
		return err
	}
	if h.modDate, err = r.ReadLeU16(); err != nil {
		return err
	}
	if h.crc32, err = r.ReadLeU32(); err != nil {
		return err
	}
	if h.compressedSize, err = r.ReadLeU32(); err != nil {
		return err
	}
	if h.uncompressedSize, err = r.ReadLeU32(); err != nil {
		return err
	}
	nameLen, err := r.ReadLeU16()
	if err != nil {
		return err
	}
	extraLen, err := r.ReadLeU16()
	if err != nil {
		return err
	}
	commentLen, err := r.ReadLeU16()
	if err != nil {
		return err
	}
	if h.diskNumber, err = r.ReadLeU16(); err != nil {
		return err
	}
	if h.internalAttrs, err = r.ReadLeU16(); err != nil {
		return err
	}
	if h.externalAttrs, err = r.ReadLeU32(); err != nil {
		return err
	}
	if h.localHeaderOffset, err = r.ReadLeU32(); err != nil {
		return err
	}
	if h.rawName, err = r.ReadIntoVec(int(nameLen)); err != nil {
		return err
	}
	extraBuf, err := r.ReadIntoVec(int(extraLen))
	if err != nil {
		return err
	}
	h.extra = parseExtraFields(extraBuf)
	if h.comment, err = r.ReadIntoVec(int(commentLen)); err != nil {
		return err
	}

	name := decodeName(h.rawName, h.flags&flagUTF8 != 0)
	if trimmed, ok := strings.CutSuffix(name, "/"); ok {
		h.isDir = true
		name = trimmed
	} else if trimmed, ok := strings.CutSuffix(name, "\\"); ok {
		h.isDir = true
		name = trimmed
	}
	h.name = name
	return nil
}

// Name is the entry's path within the archive, with any trailing directory
// separator stripped.
func (h *FileHeader) Name() string { return h.name }

// IsDir reports whether the entry's stored name ended with a directory
// separator.
func (h *FileHeader) IsDir() bool { return h.isDir }

// IsFile is the complement of IsDir.
func (h *FileHeader) IsFile() bool { return !h.isDir }

// Method is the raw compression method field (0 = stored, 8 = DEFLATE).
func (h *FileHeader) Method() uint16 { return h.method }

// Encrypted reports whether flag bit 0 (the encryption flag) is set. This
// reader does not support decrypting such entries.
func (h *FileHeader) Encrypted() bool { return h.flags&flagEncrypted != 0 }

// CompressedSize is the entry's size on disk.
func (h *FileHeader) CompressedSize() int64 { return int64(h.compressedSize) }

// UncompressedSize is the entry's size once decompressed.
func (h *FileHeader) UncompressedSize() int64 { return int64(h.uncompressedSize) }

// CRC32 is the recorded checksum of the decompressed bytes.
func (h *FileHeader) CRC32() uint32 { return h.crc32 }

// ModTime is the entry's modification time: the Info-ZIP extended timestamp
// extra field (0x5455) if present, the NTFS or Unix extra fields failing
// that, falling back to the 2-second-resolution MS-DOS date/time fields
// always present in the fixed payload.
func (h *FileHeader) ModTime() time.Time {
	t := msDOSToTime(h.modDate, h.modTime)
	// Kinds later in this list override earlier ones when more than one
	// timestamp source is present.
	for _, kind := range []uint16{extraNTFS, extraUnix, extraInfoZipUN, extraInfoZipTS} {
		if data, ok := h.extra[kind]; ok {
			if mt := timeFromExtraField(kind, data); !mt.IsZero() {
				t = mt
			}
		}
	}
	return t
}

// localFileHeader is the per-entry header immediately preceding an entry's
// data; its variable-length fields are re-read on open because they are not
// guaranteed to match the central header's (some writers omit the name or
// extra fields locally).
type localFileHeader struct {
	flags          uint16
	method         uint16
	compressedSize uint32
}

func (l *localFileHeader) FixedLen() int { return localFixedLen }

func (l *localFileHeader) Signature() (structure.SignatureMode, uint32) {
	return structure.RequiredSignature, sigLocalHdr
}

func (l *localFileHeader) ParseData(r *byteio.Reader) error {
	if _, err := r.ReadLeU16(); err != nil { // versionNeeded
		return err
	}
	var err error
	if l.flags, err = r.ReadLeU16(); err != nil {
		return err
	}
	if l.method, err = r.ReadLeU16(); err != nil {
		return err
	}
	if _, err = r.ReadLeU16(); err != nil { // modTime
		return err
	}
	if _, err = r.ReadLeU16(); err != nil { // modDate
		return err
	}
	if _, err = r.ReadLeU32(); err != nil { // crc32
		return err
	}
	if l.compressedSize, err = r.ReadLeU32(); err != nil {
		return err
	}
	if _, err = r.ReadLeU32(); err != nil { // uncompressedSize
		return err
	}
	nameLen, err := r.ReadLeU16()
	if err != nil {
		return err
	}
	extraLen, err := r.ReadLeU16()
	if err != nil {
		return err
	}
	if _, err = r.ReadIntoVec(int(nameLen)); err != nil {
		return err
	}
	if _, err = r.ReadIntoVec(int(extraLen)); err != nil {
		return err
	}
	return nil
}

// parseExtraFields splits a ZIP extensible data field blob into its
// id -> payload entries.
func parseExtraFields(buf []byte) map[uint16][]byte {
	fields := make(map[uint16][]byte)
	for len(buf) >= 4 {
		id := binary.LittleEndian.Uint16(buf)
		size := int(binary.LittleEndian.Uint16(buf[2:]))
		if len(buf) < 4+size {
			break
		}
		fields[id] = buf[4 : 4+size]
		buf = buf[4+size:]
	}
	return fields
}
