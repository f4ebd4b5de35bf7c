package iso9660

import (
	"encoding/binary"
	"io"
	"strings"

	"emperror.dev/errors"
)

// VolumeDescriptor describes the overall layout of an image: where the root
// directory lives, how large the volume is, and the block size everything is
// addressed in. It is synthesized once per build or parsed once per read and
// never mutated afterwards.
type VolumeDescriptor struct {
	// Type is the descriptor type code; only TypePrimary descriptors carry
	// the fields below.
	Type byte
	// StandardIdentifier is the "CD001" magic of the descriptor set.
	StandardIdentifier string
	// Version is the volume descriptor version, always 1.
	Version byte

	SystemIdentifier string
	VolumeIdentifier string

	// VolumeSpaceSize is the total number of logical blocks in the image.
	VolumeSpaceSize uint32
	// LogicalBlockSize is the block size of the image, always BlockSize for
	// images built by this codec.
	LogicalBlockSize uint16

	// RootDirectoryExtent is the logical block at which the root directory's
	// records begin, with RootDirectorySize bytes of them.
	RootDirectoryExtent uint32
	RootDirectorySize   uint32
}

// Encode renders the descriptor as a full 2048-byte primary volume
// descriptor block. Identifiers are uppercased and space-padded to their
// fixed 32-byte fields. Only the little-endian halves of the format's
// both-byte-order fields are written.
func (d *VolumeDescriptor) Encode() []byte {
	b := make([]byte, BlockSize)

	b[vdTypeOffset] = TypePrimary
	copy(b[vdStandardIDOffset:], standardIdentifier)
	b[vdVersionOffset] = descriptorVersion

	copy(b[vdSystemIDOffset:], paddedIdentifier(d.SystemIdentifier))
	copy(b[vdVolumeIDOffset:], paddedIdentifier(d.VolumeIdentifier))

	binary.LittleEndian.PutUint32(b[vdSpaceSizeOffset:], d.VolumeSpaceSize)
	binary.LittleEndian.PutUint16(b[vdSetSizeOffset:], 1)
	binary.LittleEndian.PutUint16(b[vdSequenceOffset:], 1)
	binary.LittleEndian.PutUint16(b[vdBlockSizeOffset:], BlockSize)

	copy(b[vdRootRecordOffset:], EncodeRecord(SelfIdentifier, d.RootDirectoryExtent, d.RootDirectorySize, true))

	return b
}

// EncodeTerminator renders a volume descriptor set terminator block. A
// terminator ends a descriptor chain and must stop any scan without error.
func EncodeTerminator() []byte {
	b := make([]byte, BlockSize)
	b[vdTypeOffset] = TypeTerminator
	copy(b[vdStandardIDOffset:], standardIdentifier)
	b[vdVersionOffset] = descriptorVersion
	return b
}

// DecodeVolumeDescriptor parses a primary volume descriptor from a 2048-byte
// block. It returns nil when the block does not hold a primary descriptor,
// which includes short buffers and set terminators; only a type 1 descriptor
// yields a usable result.
func DecodeVolumeDescriptor(block []byte) *VolumeDescriptor {
	if len(block) < BlockSize || block[vdTypeOffset] != TypePrimary {
		return nil
	}

	return &VolumeDescriptor{
		Type:               block[vdTypeOffset],
		StandardIdentifier: string(block[vdStandardIDOffset : vdStandardIDOffset+len(standardIdentifier)]),
		Version:            block[vdVersionOffset],

		SystemIdentifier: trimmedIdentifier(block[vdSystemIDOffset : vdSystemIDOffset+vdIdentifierWidth]),
		VolumeIdentifier: trimmedIdentifier(block[vdVolumeIDOffset : vdVolumeIDOffset+vdIdentifierWidth]),

		VolumeSpaceSize:  binary.LittleEndian.Uint32(block[vdSpaceSizeOffset:]),
		LogicalBlockSize: binary.LittleEndian.Uint16(block[vdBlockSizeOffset:]),

		RootDirectoryExtent: binary.LittleEndian.Uint32(block[vdRootRecordOffset+recExtentOffset:]),
		RootDirectorySize:   binary.LittleEndian.Uint32(block[vdRootRecordOffset+recDataLengthOffset:]),
	}
}

// FindPrimary scans the volume descriptor set of an image for the primary
// descriptor, beginning at the conventional sector. Non-primary descriptors
// are skipped by reading the next sector; the scan stops at a descriptor set
// terminator or after limit sectors, never unboundedly, and reports
// ErrNoPrimaryDescriptor in either case. A limit of zero or less applies
// DefaultDescriptorScanLimit.
func FindPrimary(r io.ReaderAt, limit int) (*VolumeDescriptor, error) {
	if limit <= 0 {
		limit = DefaultDescriptorScanLimit
	}

	buf := make([]byte, BlockSize)
	for i := 0; i < limit; i++ {
		offset := int64(PrimarySectorNumber+i) * BlockSize
		if _, err := r.ReadAt(buf, offset); err != nil {
			return nil, errors.Wrapf(err, "iso9660: failed to read descriptor sector at offset %d", offset)
		}
		if buf[vdTypeOffset] == TypeTerminator {
			break
		}
		if d := DecodeVolumeDescriptor(buf); d != nil {
			return d, nil
		}
	}
	return nil, ErrNoPrimaryDescriptor
}

func paddedIdentifier(s string) []byte {
	s = strings.ToUpper(s)
	if len(s) > vdIdentifierWidth {
		s = s[:vdIdentifierWidth]
	}
	return []byte(s + strings.Repeat(" ", vdIdentifierWidth-len(s)))
}

func trimmedIdentifier(b []byte) string {
	return strings.TrimRight(string(b), " \x00")
}
