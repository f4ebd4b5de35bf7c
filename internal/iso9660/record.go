package iso9660

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"emperror.dev/errors"
)

// DirectoryRecord is one variable-length entry inside a directory's data,
// describing a single child file or subdirectory.
type DirectoryRecord struct {
	// Length is the total encoded length of the record including its
	// trailing pad byte; a scanner advances by this value, never by a fixed
	// stride, because record lengths vary with identifier length.
	Length int

	// ExtentLocation is the logical block where the entry's data begins and
	// DataLength the byte length of that data; zero for empty entries.
	ExtentLocation uint32
	DataLength     uint32

	IsDirectory bool

	// Identifier is the decoded entry name. On decode a trailing file
	// version suffix has been stripped and the reserved self/parent bytes
	// map to "." and "..".
	Identifier string
}

// IsSelfOrParent reports whether this record is one of the reserved "." or
// ".." entries that reference the directory itself and its parent.
func (r *DirectoryRecord) IsSelfOrParent() bool {
	return r.Identifier == SelfIdentifier || r.Identifier == ParentIdentifier
}

// RecordLength returns the encoded length of a record carrying the given
// identifier: the fixed header plus the identifier, rounded up to even with
// a single pad byte.
func RecordLength(identifier string) int {
	l := recBaseLength + len(identifierBytes(identifier))
	if l%2 != 0 {
		l++
	}
	return l
}

// EncodeRecord renders a single directory record. The "." and ".."
// identifiers are written as their reserved single-byte forms; all other
// identifiers are written verbatim.
func EncodeRecord(identifier string, extent uint32, dataLength uint32, isDirectory bool) []byte {
	id := identifierBytes(identifier)

	b := make([]byte, RecordLength(identifier))
	b[recLengthOffset] = byte(len(b))
	binary.LittleEndian.PutUint32(b[recExtentOffset:], extent)
	binary.LittleEndian.PutUint32(b[recDataLengthOffset:], dataLength)
	if isDirectory {
		b[recFlagsOffset] |= flagDirectory
	}
	b[recIdentifierLen] = byte(len(id))
	copy(b[recIdentifierOffset:], id)

	return b
}

// DecodeRecord parses the directory record at the start of buf. A nil record
// with a nil error is returned precisely when the record length byte is
// zero: the remainder of the block is padding and holds no more usable
// records, so the scanner must stop rather than interpret further bytes. Any
// structurally impossible record yields ErrMalformedRecord instead; the two
// conditions are never conflated.
func DecodeRecord(buf []byte) (*DirectoryRecord, error) {
	if len(buf) == 0 {
		return nil, errors.WithMessage(ErrMalformedRecord, "empty buffer")
	}

	length := int(buf[recLengthOffset])
	if length == 0 {
		// No more records in this block.
		return nil, nil
	}
	if length < recBaseLength {
		return nil, errors.WithMessage(ErrMalformedRecord, fmt.Sprintf("impossible record length %d", length))
	}
	if length > len(buf) {
		return nil, errors.WithMessage(ErrMalformedRecord, fmt.Sprintf("record length %d overruns remaining block space %d", length, len(buf)))
	}

	idLen := int(buf[recIdentifierLen])
	if recIdentifierOffset+idLen > length {
		return nil, errors.WithMessage(ErrMalformedRecord, fmt.Sprintf("identifier length %d overruns record of length %d", idLen, length))
	}

	identifier, err := decodeIdentifier(buf[recIdentifierOffset : recIdentifierOffset+idLen])
	if err != nil {
		return nil, err
	}

	return &DirectoryRecord{
		Length:         length,
		ExtentLocation: binary.LittleEndian.Uint32(buf[recExtentOffset:]),
		DataLength:     binary.LittleEndian.Uint32(buf[recDataLengthOffset:]),
		IsDirectory:    buf[recFlagsOffset]&flagDirectory != 0,
		Identifier:     identifier,
	}, nil
}

func identifierBytes(identifier string) []byte {
	switch identifier {
	case SelfIdentifier:
		return []byte{selfIdentifierByte}
	case ParentIdentifier:
		return []byte{parentIdentifierByte}
	}
	return []byte(identifier)
}

// decodeIdentifier maps the reserved self/parent bytes back to their "." and
// ".." names, strips the trailing version suffix of file identifiers, and
// rejects identifiers that are not valid text. Only the decoded name is
// altered; the stored bytes keep their suffix.
func decodeIdentifier(id []byte) (string, error) {
	if len(id) == 1 {
		switch id[0] {
		case selfIdentifierByte:
			return SelfIdentifier, nil
		case parentIdentifierByte:
			return ParentIdentifier, nil
		}
	}
	if !utf8.Valid(id) {
		return "", errors.WithMessage(ErrMalformedRecord, "identifier is not valid text")
	}
	for _, c := range id {
		if c < 0x20 {
			return "", errors.WithMessage(ErrMalformedRecord, fmt.Sprintf("identifier contains control byte %#x", c))
		}
	}
	return strings.TrimSuffix(string(id), versionSuffix), nil
}
