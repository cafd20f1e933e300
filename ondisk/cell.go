package ondisk

import "github.com/pkg/errors"

// BTreeCell is one decoded cell. TableLeafCell is the only variant decoded
// so far; interior and index cells report ErrUnsupportedCell.
type BTreeCell interface {
	isCell()
}

// TableLeafCell is a row of a table b-tree: its rowid, the raw payload and
// the record decoded from it. Payload is a copy of the page bytes.
type TableLeafCell struct {
	Rowid   uint64
	Payload []byte
	Record  Record
}

func (*TableLeafCell) isCell() {}

// ReadCell decodes the cell starting at offset within page, treating text
// as UTF-8.
func ReadCell(page []byte, pt PageType, offset int) (BTreeCell, error) {
	return defaultDecoder.ReadCell(page, pt, offset)
}

// ReadCell decodes the cell starting at offset within page.
func (d Decoder) ReadCell(page []byte, pt PageType, offset int) (BTreeCell, error) {
	if offset < 0 || offset >= len(page) {
		return nil, errors.Wrapf(ErrOutOfBounds, "cell offset %d outside page of %d bytes", offset, len(page))
	}
	switch pt {
	case PageTypeTableLeaf:
		return d.readTableLeafCell(page, offset)
	case PageTypeTableInterior, PageTypeIndexLeaf, PageTypeIndexInterior:
		return nil, errors.Wrapf(ErrUnsupportedCell, "%s cell at offset %d", pt, offset)
	default:
		return nil, errors.Wrapf(ErrInvalidPageType, "%d", uint8(pt))
	}
}

// readTableLeafCell decodes varint(payload size), varint(rowid), payload.
// Payloads larger than what is left on the page would continue on overflow
// pages, which are not followed; they fail with ErrOutOfBounds.
func (d Decoder) readTableLeafCell(page []byte, offset int) (*TableLeafCell, error) {
	pos := offset
	size, n, err := ReadVarint(page[pos:])
	if err != nil {
		return nil, errors.WithMessagef(err, "payload size of cell at %d", offset)
	}
	pos += n
	rowid, n, err := ReadVarint(page[pos:])
	if err != nil {
		return nil, errors.WithMessagef(err, "rowid of cell at %d", offset)
	}
	pos += n
	if size > uint64(len(page)-pos) {
		return nil, errors.Wrapf(ErrOutOfBounds, "cell at %d: payload of %d bytes at %d exceeds page of %d bytes",
			offset, size, pos, len(page))
	}
	payload := make([]byte, size)
	copy(payload, page[pos:pos+int(size)])
	rec, err := d.ReadRecord(payload)
	if err != nil {
		return nil, errors.WithMessagef(err, "record of row %d", rowid)
	}
	return &TableLeafCell{
		Rowid:   rowid,
		Payload: payload,
		Record:  rec,
	}, nil
}
