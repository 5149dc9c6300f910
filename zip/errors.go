package zip

import "errors"

// ErrNotFound reports that no End of Central Directory record could be
// located in the archive.
var ErrNotFound = errors.New("zip: end of central directory record not found")

// ErrInvalidData reports a structural violation of the ZIP format: a bad
// signature, a directory entry that doesn't fit the bytes available, or an
// internally inconsistent field.
var ErrInvalidData = errors.New("zip: invalid data")

// ErrUnsupported reports a feature this reader doesn't implement: a
// compression method other than stored or DEFLATE, or an entry flagged as
// encrypted.
var ErrUnsupported = errors.New("zip: unsupported feature")

// ErrOutOfRange reports an entry index outside [0, EntryCount()).
var ErrOutOfRange = errors.New("zip: entry index out of range")

// ErrChecksum reports that an entry's decompressed bytes did not match its
// recorded CRC-32.
var ErrChecksum = errors.New("zip: checksum mismatch")

// ErrBusy reports an attempt to open a second EntryReader while one is
// already live on this Archive.
var ErrBusy = errors.New("zip: another entry reader is already open")
