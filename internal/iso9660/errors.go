package iso9660

import (
	"emperror.dev/errors"
)

var (
	// ErrNoPrimaryDescriptor is returned when an image's descriptor set does
	// not contain a usable primary volume descriptor.
	ErrNoPrimaryDescriptor = errors.Sentinel("iso9660: no primary volume descriptor found")

	// ErrMalformedRecord is returned when a directory record cannot be
	// decoded: its declared identifier would overrun the buffer, its length
	// is impossible, or the identifier bytes are not valid text. This is
	// distinct from the nil record returned when a zero length byte marks
	// the end of the live records in a block.
	ErrMalformedRecord = errors.Sentinel("iso9660: malformed directory record")

	// ErrImageTooLarge is returned when a build would require more blocks
	// than a 32-bit block index can address.
	ErrImageTooLarge = errors.Sentinel("iso9660: image exceeds 32-bit block addressing")
)
