// Package iso9660 implements a minimal ISO9660 (Level 1 subset) image codec:
// building an image from a source directory tree and walking an existing
// image back into a listing of its hierarchy.
//
// The subset stores only the little-endian halves of the format's
// both-byte-order fields, which is sufficient for images that are built and
// read back with this same codec. Joliet, Rock Ridge, multi-session images,
// and El Torito boot records are not supported.
package iso9660

const (
	// BlockSize is the logical block size of an image. Every extent begins
	// on a block boundary and content shorter than a block is zero-padded
	// up to the next boundary.
	BlockSize = 2048

	// PrimarySectorNumber is the conventional sector at which the volume
	// descriptor set, and therefore the primary volume descriptor, begins.
	// Everything before it is the reserved system area.
	PrimarySectorNumber = 16

	// FirstDataBlock is the first block handed out for directory and file
	// extents in a built image: the system area plus the PVD sector.
	FirstDataBlock = PrimarySectorNumber + 1

	// DefaultDescriptorScanLimit bounds how many descriptor sectors are
	// examined while looking for the PVD of a foreign image.
	DefaultDescriptorScanLimit = 32
)

// Volume descriptor type codes.
const (
	TypePrimary    = 1
	TypeTerminator = 255
)

const (
	standardIdentifier = "CD001"
	descriptorVersion  = 1
)

// Primary volume descriptor field offsets. The root directory record is
// embedded at offset 156, which places its extent field at byte 158 and its
// data length field at byte 166 of the descriptor.
const (
	vdTypeOffset       = 0
	vdStandardIDOffset = 1
	vdVersionOffset    = 6
	vdSystemIDOffset   = 8
	vdVolumeIDOffset   = 40
	vdSpaceSizeOffset  = 80
	vdSetSizeOffset    = 120
	vdSequenceOffset   = 124
	vdBlockSizeOffset  = 128
	vdRootRecordOffset = 156

	vdIdentifierWidth = 32
)

// Directory record field offsets and sizes.
const (
	recLengthOffset     = 0
	recExtentOffset     = 2
	recDataLengthOffset = 10
	recFlagsOffset      = 25
	recIdentifierLen    = 32
	recIdentifierOffset = 33

	// recBaseLength is the length of a record before its identifier bytes;
	// the encoded length is rounded up to the next even value.
	recBaseLength = 34

	flagDirectory = 0x02
)

// Reserved identifier bytes for the self and parent entries of a directory.
const (
	selfIdentifierByte   = 0x00
	parentIdentifierByte = 0x01
)

// Reserved decoded identifiers for the self and parent entries. These two
// names are the sole cycle-breaking mechanism of the format: a reader must
// never recurse into them.
const (
	SelfIdentifier   = "."
	ParentIdentifier = ".."
)

// versionSuffix is appended to file identifiers when an image is built and
// stripped again when a record is decoded.
const versionSuffix = ";1"
