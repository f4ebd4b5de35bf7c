package iso9660

import (
	"fmt"
	"io"

	"emperror.dev/errors"
)

// Visitor is called for every directory record encountered during a walk,
// with the recursion depth of the directory holding it. Returning an error
// aborts the walk.
type Visitor func(depth int, record *DirectoryRecord) error

// Reader walks an existing image depth-first from the root extent named by
// its primary volume descriptor. Like the builder it is fully synchronous
// and assumes it is the only consumer of the underlying store.
type Reader struct {
	r   io.ReaderAt
	pvd *VolumeDescriptor
}

// NewReader locates the primary volume descriptor of the image held by r,
// scanning at most limit descriptor sectors, and returns a reader rooted at
// it. ErrNoPrimaryDescriptor is reported when no usable descriptor exists.
func NewReader(r io.ReaderAt, limit int) (*Reader, error) {
	d, err := FindPrimary(r, limit)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, pvd: d}, nil
}

// Descriptor returns the decoded primary volume descriptor.
func (r *Reader) Descriptor() *VolumeDescriptor {
	return r.pvd
}

// Walk visits every record in the image depth-first, recursing into each
// directory record whose identifier is neither "." nor ".." — that
// exclusion is the only guard against infinite recursion in the format and
// the reserved entries are therefore never descended into, even when their
// directory flag is set.
func (r *Reader) Walk(fn Visitor) error {
	return r.walk(r.pvd.RootDirectoryExtent, r.pvd.RootDirectorySize, 0, fn)
}

func (r *Reader) walk(extent uint32, size uint32, depth int, fn Visitor) error {
	blocks := BlocksNeeded(int64(size))
	buf := make([]byte, BlockSize)

	for i := int64(0); i < blocks; i++ {
		offset := (int64(extent) + i) * BlockSize
		if _, err := r.r.ReadAt(buf, offset); err != nil {
			return errors.Wrapf(err, "iso9660: failed to read directory block at offset %d", offset)
		}

		pos := 0
		for pos < BlockSize {
			rec, err := DecodeRecord(buf[pos:])
			if err != nil {
				return errors.WithMessage(err, fmt.Sprintf("at image offset %d", offset+int64(pos)))
			}
			if rec == nil {
				// Zero length byte: the rest of the block is padding.
				break
			}
			if err := r.check(rec, offset+int64(pos)); err != nil {
				return err
			}
			if err := fn(depth, rec); err != nil {
				return err
			}
			if rec.IsDirectory && !rec.IsSelfOrParent() {
				if err := r.walk(rec.ExtentLocation, rec.DataLength, depth+1, fn); err != nil {
					return err
				}
			}
			// Advance by the record's own length, never a fixed stride.
			pos += rec.Length
		}
	}
	return nil
}

// check enforces that a record's data stays inside the declared volume
// space; one that points past it cannot have been produced by a valid
// writer.
func (r *Reader) check(rec *DirectoryRecord, offset int64) error {
	space := int64(r.pvd.VolumeSpaceSize)
	if space == 0 {
		return nil
	}
	if end := int64(rec.ExtentLocation) + BlocksNeeded(int64(rec.DataLength)); end > space {
		return errors.WithMessage(ErrMalformedRecord,
			fmt.Sprintf("record %q at image offset %d extends to block %d beyond volume space %d", rec.Identifier, offset, end, space))
	}
	return nil
}
