// Package ondisk decodes the SQLite file format: the database header,
// b-tree pages, table leaf cells and the records they carry.
//
// All functions work on byte slices already read into memory and copy out
// every value they return, so the caller may recycle the buffer as soon as
// a call returns. See https://www.sqlite.org/fileformat.html.
package ondisk

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	DatabaseHeaderSize = 100
	MinPageSize        = 512
	MaxPageSize        = 65536
	// Magic is the 16 byte signature at the start of every database file.
	Magic = "SQLite format 3\x00"
)

// PageSource supplies raw page bytes. Page numbers start at 1. Get fills
// out with the first len(out) bytes of the page.
type PageSource interface {
	Get(pageNo int, out []byte) error
}

// DatabaseHeader is the 100 byte header at the start of page 1.
type DatabaseHeader struct {
	Magic [16]byte
	// PageSize is the raw field; 1 means 65536. Use PageSizeBytes.
	PageSize          uint16
	WriteVersion      uint8
	ReadVersion       uint8
	ReservedSpace     uint8
	MaxPayloadFrac    uint8
	MinPayloadFrac    uint8
	LeafPayloadFrac   uint8
	ChangeCounter     uint32
	DatabaseSize      uint32
	FreelistTrunk     uint32
	FreelistCount     uint32
	SchemaCookie      uint32
	SchemaFormat      uint32
	DefaultCacheSize  uint32
	LargestRootPage   uint32
	TextEncoding      uint32
	UserVersion       uint32
	IncrementalVacuum uint32
	ApplicationID     uint32
	Reserved          [20]byte
	VersionValidFor   uint32
	VersionNumber     uint32
}

// ReadDatabaseHeader reads the start of page 1 from src and decodes it.
func ReadDatabaseHeader(src PageSource) (*DatabaseHeader, error) {
	buf := make([]byte, MinPageSize)
	if err := src.Get(1, buf); err != nil {
		return nil, errors.WithMessage(err, "read database header")
	}
	return ParseDatabaseHeader(buf)
}

// ParseDatabaseHeader decodes the database header from the first 100 bytes
// of data. It checks the magic string and the page size; Validate checks
// the remaining fields.
func ParseDatabaseHeader(data []byte) (*DatabaseHeader, error) {
	if len(data) < DatabaseHeaderSize {
		return nil, errors.Wrapf(ErrMalformedHeader, "database header needs %d bytes, have %d", DatabaseHeaderSize, len(data))
	}
	h := &DatabaseHeader{}
	copy(h.Magic[:], data[0:16])
	if string(h.Magic[:]) != Magic {
		return nil, errors.Wrapf(ErrMalformedHeader, "bad magic %q", h.Magic[:])
	}
	h.PageSize = binary.BigEndian.Uint16(data[16:])
	if !validPageSize(h.PageSizeBytes()) {
		return nil, errors.Wrapf(ErrMalformedHeader, "page size %d", h.PageSize)
	}
	h.WriteVersion = data[18]
	h.ReadVersion = data[19]
	h.ReservedSpace = data[20]
	h.MaxPayloadFrac = data[21]
	h.MinPayloadFrac = data[22]
	h.LeafPayloadFrac = data[23]
	h.ChangeCounter = binary.BigEndian.Uint32(data[24:])
	h.DatabaseSize = binary.BigEndian.Uint32(data[28:])
	h.FreelistTrunk = binary.BigEndian.Uint32(data[32:])
	h.FreelistCount = binary.BigEndian.Uint32(data[36:])
	h.SchemaCookie = binary.BigEndian.Uint32(data[40:])
	h.SchemaFormat = binary.BigEndian.Uint32(data[44:])
	h.DefaultCacheSize = binary.BigEndian.Uint32(data[48:])
	h.LargestRootPage = binary.BigEndian.Uint32(data[52:])
	h.TextEncoding = binary.BigEndian.Uint32(data[56:])
	h.UserVersion = binary.BigEndian.Uint32(data[60:])
	h.IncrementalVacuum = binary.BigEndian.Uint32(data[64:])
	h.ApplicationID = binary.BigEndian.Uint32(data[68:])
	copy(h.Reserved[:], data[72:92])
	h.VersionValidFor = binary.BigEndian.Uint32(data[92:])
	h.VersionNumber = binary.BigEndian.Uint32(data[96:])
	return h, nil
}

// PageSizeBytes returns the page size, mapping the raw value 1 to 65536.
func (h *DatabaseHeader) PageSizeBytes() int {
	if h.PageSize == 1 {
		return MaxPageSize
	}
	return int(h.PageSize)
}

// UsableSize is the page size minus the reserved bytes at the end of each
// page.
func (h *DatabaseHeader) UsableSize() int {
	return h.PageSizeBytes() - int(h.ReservedSpace)
}

// Validate checks the fields ParseDatabaseHeader leaves alone.
func (h *DatabaseHeader) Validate() error {
	if string(h.Magic[:]) != Magic {
		return errors.Wrapf(ErrMalformedHeader, "bad magic %q", h.Magic[:])
	}
	if !validPageSize(h.PageSizeBytes()) {
		return errors.Wrapf(ErrMalformedHeader, "page size %d", h.PageSize)
	}
	if h.WriteVersion != 1 && h.WriteVersion != 2 {
		return errors.Wrapf(ErrMalformedHeader, "write version %d", h.WriteVersion)
	}
	if h.ReadVersion != 1 && h.ReadVersion != 2 {
		return errors.Wrapf(ErrMalformedHeader, "read version %d", h.ReadVersion)
	}
	if h.MaxPayloadFrac != 64 || h.MinPayloadFrac != 32 || h.LeafPayloadFrac != 32 {
		return errors.Wrapf(ErrMalformedHeader, "payload fractions %d/%d/%d",
			h.MaxPayloadFrac, h.MinPayloadFrac, h.LeafPayloadFrac)
	}
	if h.UsableSize() < 480 {
		return errors.Wrapf(ErrMalformedHeader, "usable size %d", h.UsableSize())
	}
	if h.SchemaFormat > 4 {
		return errors.Wrapf(ErrMalformedHeader, "schema format %d", h.SchemaFormat)
	}
	switch TextEncoding(h.TextEncoding) {
	case EncodingUTF8, EncodingUTF16LE, EncodingUTF16BE:
	default:
		// an empty database has not picked an encoding yet
		if h.TextEncoding != 0 || h.DatabaseSize > 1 {
			return errors.Wrapf(ErrMalformedHeader, "text encoding %d", h.TextEncoding)
		}
	}
	return nil
}

func validPageSize(n int) bool {
	return n >= MinPageSize && n <= MaxPageSize && n&(n-1) == 0
}
