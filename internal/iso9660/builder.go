package iso9660

import (
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/karrick/godirwalk"

	"github.com/isoforge/isoforge/internal/progress"
)

const defaultChunkSize = 4 * 1024

// Builder encodes a source directory tree into an ISO9660 image using a
// two-pass algorithm: a sizing pass that totals the file bytes to be
// written, then a depth-first write pass that lays out the PVD, the nested
// directory blocks, and the file data. A builder performs exactly one build
// at a time; there is no locking because concurrent access to the same
// image store is out of scope.
type Builder struct {
	// SourcePath is the directory tree to encode.
	SourcePath string

	// VolumeIdentifier and SystemIdentifier are stamped into the PVD.
	VolumeIdentifier string
	SystemIdentifier string

	// ChunkSize is the number of bytes read from a source file per write
	// when streaming its contents; defaultChunkSize when zero.
	ChunkSize int

	// Progress, when set, has its total seeded from the sizing pass and is
	// fed every file byte streamed into the image.
	Progress *progress.Progress

	alloc *Allocator
	chunk []byte
	// end is the highest byte offset written to the store so far, used to
	// pad the finished image out to a whole-block multiple.
	end int64
}

// SizeSource recursively sums the byte sizes of all regular files under the
// source root. Entries that cannot be read due to access restrictions are
// logged and excluded from the total; any other error aborts the sizing.
// The result seeds the progress denominator only: the write pass is
// authoritative for every value persisted in the image, and the progress
// percentage is clamped when the two passes diverge.
func (b *Builder) SizeSource() (uint64, error) {
	var total uint64
	err := godirwalk.Walk(b.SourcePath, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsRegular() {
				return nil
			}
			fi, err := os.Stat(path)
			if err != nil {
				if errors.Is(err, fs.ErrPermission) {
					b.log(path, err).Warn("excluding unreadable entry from size total")
					return nil
				}
				return err
			}
			total += uint64(fi.Size())
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			if errors.Is(err, fs.ErrPermission) {
				b.log(path, err).Warn("excluding unreadable directory from size total")
				return godirwalk.SkipNode
			}
			return godirwalk.Halt
		},
	})
	if err != nil {
		return 0, errors.Wrap(err, "iso9660: sizing pass over source tree failed")
	}
	return total, nil
}

// Build encodes the source tree into dst. Children are visited in the order
// the source filesystem lists them; a file or directory that cannot be
// opened due to access restrictions is logged and skipped, while any other
// error aborts the build. A failed build must not be treated as a valid
// image by the caller.
func (b *Builder) Build(dst io.WriterAt) error {
	total, err := b.SizeSource()
	if err != nil {
		return err
	}
	if b.Progress != nil {
		b.Progress.SetTotal(total)
	}

	b.alloc = NewAllocator()
	b.chunk = make([]byte, b.chunkSize())
	b.end = 0

	extent, size, err := b.buildDirectory(dst, b.SourcePath, -1, 0, 0)
	if err != nil {
		return err
	}

	blocks := b.alloc.Blocks()
	if blocks > math.MaxUint32 {
		return errors.WithMessage(ErrImageTooLarge, fmt.Sprintf("%d blocks required", blocks))
	}

	d := &VolumeDescriptor{
		SystemIdentifier:    b.SystemIdentifier,
		VolumeIdentifier:    b.VolumeIdentifier,
		VolumeSpaceSize:     uint32(blocks),
		LogicalBlockSize:    BlockSize,
		RootDirectoryExtent: uint32(extent),
		RootDirectorySize:   size,
	}
	if err := b.writeAt(dst, d.Encode(), PrimarySectorNumber*BlockSize); err != nil {
		return err
	}

	// Pad the image out to a whole-block multiple.
	if end := blocks * BlockSize; b.end < end {
		if err := b.writeAt(dst, make([]byte, end-b.end), b.end); err != nil {
			return err
		}
	}
	return nil
}

// buildDirectory lays out one directory frame: its extent is allocated from
// the prospective record lengths before any child data so that a directory
// always lands ahead of the data it references, then children are visited
// depth-first in listed order and their records accumulated. The directory
// block(s) are flushed once the whole subtree has completed.
func (b *Builder) buildDirectory(dst io.WriterAt, path string, parentExtent int64, parentSize uint32, depth int) (int64, uint32, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return 0, 0, errors.WithStackIf(err)
	}

	// An empty directory holds no records at all and consumes no blocks: it
	// is handed the current cursor with a zero data length.
	if len(entries) == 0 {
		return b.alloc.Allocate(0), 0, nil
	}

	lengths := []int{RecordLength(SelfIdentifier), RecordLength(ParentIdentifier)}
	ids := make([]string, len(entries))
	for i, e := range entries {
		// Irregular entries never make it into the image, so their names
		// are not held to identifier rules and they claim no record space.
		if !e.IsDir() && !e.Type().IsRegular() {
			continue
		}
		id, err := entryIdentifier(e.Name(), e.IsDir())
		if err != nil {
			return 0, 0, err
		}
		ids[i] = id
		lengths = append(lengths, RecordLength(id))
	}

	dirBytes := directoryLayout(lengths)
	extent := b.alloc.Allocate(dirBytes)
	declared := uint32(BlocksNeeded(dirBytes) * BlockSize)
	if parentExtent < 0 {
		// The root directory is its own parent.
		parentExtent, parentSize = extent, declared
	}

	b.log(path, nil).WithField("extent", extent).WithField("depth", depth).Debug("laying out directory")

	buf := make([]byte, BlocksNeeded(dirBytes)*BlockSize)
	off := placeRecord(buf, 0, EncodeRecord(SelfIdentifier, uint32(extent), declared, true))
	off = placeRecord(buf, off, EncodeRecord(ParentIdentifier, uint32(parentExtent), parentSize, true))

	for i, e := range entries {
		child := filepath.Join(path, e.Name())
		switch {
		case e.IsDir():
			cext, csize, err := b.buildDirectory(dst, child, extent, declared, depth+1)
			if err != nil {
				if errors.Is(err, fs.ErrPermission) {
					b.log(child, err).Warn("skipping unreadable directory")
					continue
				}
				return 0, 0, err
			}
			off = placeRecord(buf, off, EncodeRecord(ids[i], uint32(cext), csize, true))
		case e.Type().IsRegular():
			cext, csize, err := b.writeFile(dst, child)
			if err != nil {
				if errors.Is(err, fs.ErrPermission) {
					b.log(child, err).Warn("skipping unreadable file")
					continue
				}
				return 0, 0, err
			}
			off = placeRecord(buf, off, EncodeRecord(ids[i], uint32(cext), csize, false))
		default:
			b.log(child, nil).Debug("skipping irregular directory entry")
		}
	}

	if err := b.writeAt(dst, buf, extent*BlockSize); err != nil {
		return 0, 0, err
	}
	return extent, declared, nil
}

// writeFile allocates an extent for one regular file and streams its bytes
// into the image in fixed-size chunks, zero-padding the final chunk up to
// the block boundary. The returned data length is the exact, unpadded byte
// length of the file.
func (b *Builder) writeFile(dst io.WriterAt, path string) (int64, uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.WithStackIf(err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return 0, 0, errors.WithStackIf(err)
	}
	size := fi.Size()
	if size > math.MaxUint32 {
		return 0, 0, errors.WithMessage(ErrImageTooLarge, fmt.Sprintf("file %s is %d bytes, beyond a 32-bit data length", path, size))
	}

	extent := b.alloc.Allocate(size)
	if size == 0 {
		return extent, 0, nil
	}

	var w io.Writer = io.NewOffsetWriter(dst, extent*BlockSize)
	if b.Progress != nil {
		w = io.MultiWriter(w, b.Progress)
	}

	n, err := io.CopyBuffer(w, io.LimitReader(f, size), b.chunk)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "iso9660: failed to stream %s into image", path)
	}
	if n != size {
		return 0, 0, errors.Errorf("iso9660: size of %s changed while building (expected %d bytes, copied %d)", path, size, n)
	}

	end := extent*BlockSize + n
	if pad := BlocksNeeded(size)*BlockSize - n; pad > 0 {
		if err := b.writeAt(dst, make([]byte, pad), end); err != nil {
			return 0, 0, err
		}
	} else if end > b.end {
		b.end = end
	}
	return extent, uint32(size), nil
}

func (b *Builder) writeAt(dst io.WriterAt, p []byte, off int64) error {
	if _, err := dst.WriteAt(p, off); err != nil {
		return errors.Wrapf(err, "iso9660: write of %d bytes at image offset %d failed", len(p), off)
	}
	if end := off + int64(len(p)); end > b.end {
		b.end = end
	}
	return nil
}

func (b *Builder) chunkSize() int {
	if b.ChunkSize > 0 {
		return b.ChunkSize
	}
	return defaultChunkSize
}

func (b *Builder) log(path string, err error) *log.Entry {
	e := log.WithField("subsystem", "iso9660").WithField("path", path)
	if err != nil {
		e = e.WithField("error", err)
	}
	return e
}

// entryIdentifier derives the on-image identifier for a source entry: the
// name is uppercased and files carry the version suffix. Identifiers must
// fit the single record length byte and be printable ASCII; violations
// abort the build since only access restrictions are recoverable.
func entryIdentifier(name string, isDir bool) (string, error) {
	id := strings.ToUpper(name)
	if !isDir {
		id += versionSuffix
	}
	if recBaseLength+len(id) > 254 {
		return "", errors.Errorf("iso9660: identifier %q is too long for a directory record", id)
	}
	for _, c := range []byte(id) {
		if c < 0x20 || c > 0x7e {
			return "", errors.Errorf("iso9660: identifier %q contains byte %#x outside the printable ASCII range", id, c)
		}
	}
	return id, nil
}

// directoryLayout computes the byte size of a directory extent holding
// records of the given lengths, accounting for a record never straddling a
// block boundary: one that would not fit is pushed to the next block and
// the gap zero-filled.
func directoryLayout(lengths []int) int64 {
	var off int64
	for _, l := range lengths {
		if r := off % BlockSize; r+int64(l) > BlockSize {
			off += BlockSize - r
		}
		off += int64(l)
	}
	return off
}

// placeRecord copies rec into buf at off, shifting to the next block
// boundary first when the record would straddle one, and returns the offset
// just past it.
func placeRecord(buf []byte, off int64, rec []byte) int64 {
	if r := off % BlockSize; r+int64(len(rec)) > BlockSize {
		off += BlockSize - r
	}
	copy(buf[off:], rec)
	return off + int64(len(rec))
}
