package iso9660

import (
	"testing"

	"emperror.dev/errors"
	. "github.com/franela/goblin"
)

func TestEncodeRecord(t *testing.T) {
	g := Goblin(t)

	g.Describe("EncodeRecord", func() {
		g.It("round-trips a file record", func() {
			rec, err := DecodeRecord(EncodeRecord("A.TXT", 20, 5000, false))
			g.Assert(err).IsNil()
			g.Assert(rec).IsNotNil()
			g.Assert(rec.Identifier).Equal("A.TXT")
			g.Assert(rec.ExtentLocation).Equal(uint32(20))
			g.Assert(rec.DataLength).Equal(uint32(5000))
			g.Assert(rec.IsDirectory).IsFalse()
		})

		g.It("round-trips a directory record", func() {
			rec, err := DecodeRecord(EncodeRecord("SUB", 24, 2048, true))
			g.Assert(err).IsNil()
			g.Assert(rec.Identifier).Equal("SUB")
			g.Assert(rec.IsDirectory).IsTrue()
		})

		g.It("always produces an even record length", func() {
			for _, name := range []string{"A", "AB", "A.TXT", "LONGERNAME.BIN"} {
				b := EncodeRecord(name, 1, 1, false)
				g.Assert(len(b) % 2).Equal(0)
				g.Assert(int(b[0])).Equal(len(b))
				g.Assert(len(b) >= recBaseLength+len(name)).IsTrue()
			}
		})

		g.It("writes the reserved bytes for the self and parent entries", func() {
			self := EncodeRecord(SelfIdentifier, 17, 2048, true)
			parent := EncodeRecord(ParentIdentifier, 17, 2048, true)
			g.Assert(int(self[recIdentifierLen])).Equal(1)
			g.Assert(self[recIdentifierOffset]).Equal(byte(selfIdentifierByte))
			g.Assert(parent[recIdentifierOffset]).Equal(byte(parentIdentifierByte))
		})
	})
}

func TestDecodeRecord(t *testing.T) {
	g := Goblin(t)

	g.Describe("DecodeRecord", func() {
		g.It("signals the end of live records for a zero length byte", func() {
			// Trailing bytes must not be interpreted once the length byte is
			// zero; the remainder of a block is padding.
			buf := make([]byte, BlockSize)
			buf[1] = 0xff
			rec, err := DecodeRecord(buf)
			g.Assert(err).IsNil()
			g.Assert(rec == nil).IsTrue()
		})

		g.It("maps the reserved identifier bytes back to their names", func() {
			rec, err := DecodeRecord(EncodeRecord(SelfIdentifier, 17, 2048, true))
			g.Assert(err).IsNil()
			g.Assert(rec.Identifier).Equal(".")
			g.Assert(rec.IsSelfOrParent()).IsTrue()

			rec, err = DecodeRecord(EncodeRecord(ParentIdentifier, 17, 2048, true))
			g.Assert(err).IsNil()
			g.Assert(rec.Identifier).Equal("..")
			g.Assert(rec.IsSelfOrParent()).IsTrue()
		})

		g.It("strips the version suffix from the decoded identifier only", func() {
			b := EncodeRecord("B.BIN;1", 30, 1, false)
			rec, err := DecodeRecord(b)
			g.Assert(err).IsNil()
			g.Assert(rec.Identifier).Equal("B.BIN")
			// The stored bytes keep their suffix.
			g.Assert(string(b[recIdentifierOffset : recIdentifierOffset+int(b[recIdentifierLen])])).Equal("B.BIN;1")
		})

		g.It("rejects a record shorter than the fixed header", func() {
			buf := make([]byte, BlockSize)
			buf[0] = recBaseLength - 1
			_, err := DecodeRecord(buf)
			g.Assert(errors.Is(err, ErrMalformedRecord)).IsTrue()
		})

		g.It("rejects a record length past the end of the buffer", func() {
			b := EncodeRecord("A.TXT", 20, 5000, false)
			_, err := DecodeRecord(b[:len(b)-4])
			g.Assert(errors.Is(err, ErrMalformedRecord)).IsTrue()
		})

		g.It("rejects an identifier length that overruns the record", func() {
			b := EncodeRecord("A.TXT", 20, 5000, false)
			b[recIdentifierLen] = 200
			_, err := DecodeRecord(b)
			g.Assert(errors.Is(err, ErrMalformedRecord)).IsTrue()
		})

		g.It("rejects identifiers that are not valid text", func() {
			b := EncodeRecord("AB", 20, 5000, false)
			b[recIdentifierOffset] = 0x07
			_, err := DecodeRecord(b)
			g.Assert(errors.Is(err, ErrMalformedRecord)).IsTrue()
		})

		g.It("never conflates a malformed record with the stop signal", func() {
			b := EncodeRecord("A.TXT", 20, 5000, false)
			b[recIdentifierLen] = 200
			rec, err := DecodeRecord(b)
			g.Assert(err).IsNotNil()
			g.Assert(rec == nil).IsTrue()
		})
	})
}
