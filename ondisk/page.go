package ondisk

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// PageType is the b-tree page kind stored in the first page header byte.
type PageType uint8

const (
	PageTypeIndexInterior PageType = 2
	PageTypeTableInterior PageType = 5
	PageTypeIndexLeaf     PageType = 10
	PageTypeTableLeaf     PageType = 13
)

const (
	leafHeaderSize     = 8
	interiorHeaderSize = 12
	cellPointerSize    = 2
)

// ParsePageType validates a page type byte.
func ParsePageType(b byte) (PageType, error) {
	switch pt := PageType(b); pt {
	case PageTypeIndexInterior, PageTypeTableInterior, PageTypeIndexLeaf, PageTypeTableLeaf:
		return pt, nil
	default:
		return 0, errors.Wrapf(ErrInvalidPageType, "%d", b)
	}
}

func (pt PageType) IsInterior() bool {
	return pt == PageTypeIndexInterior || pt == PageTypeTableInterior
}

func (pt PageType) IsLeaf() bool {
	return pt == PageTypeIndexLeaf || pt == PageTypeTableLeaf
}

func (pt PageType) String() string {
	switch pt {
	case PageTypeIndexInterior:
		return "index interior"
	case PageTypeTableInterior:
		return "table interior"
	case PageTypeIndexLeaf:
		return "index leaf"
	case PageTypeTableLeaf:
		return "table leaf"
	default:
		return fmt.Sprintf("PageType(%d)", uint8(pt))
	}
}

// BTreePageHeader is the 8 byte (leaf) or 12 byte (interior) header at the
// start of every b-tree page. RightMostPointer is set only for interior
// pages.
type BTreePageHeader struct {
	Type                PageType
	FirstFreeblock      uint16
	CellCount           uint16
	CellContentArea     uint16
	FragmentedFreeBytes uint8
	RightMostPointer    *uint32
}

// Size is the on-disk length of the header.
func (h BTreePageHeader) Size() int {
	if h.Type.IsInterior() {
		return interiorHeaderSize
	}
	return leafHeaderSize
}

// BTreePage is a decoded b-tree page. Cells are in cell pointer array
// order, which is not assumed to be key order.
type BTreePage struct {
	Header       BTreePageHeader
	CellPointers []uint16
	Cells        []BTreeCell
}

// Records returns the records of the page's table leaf cells.
func (p *BTreePage) Records() []Record {
	recs := make([]Record, 0, len(p.Cells))
	for _, c := range p.Cells {
		switch c := c.(type) {
		case *TableLeafCell:
			recs = append(recs, c.Record)
		default:
			panic(fmt.Sprintf("unknown cell %T", c))
		}
	}
	return recs
}

// headerOffset is where the b-tree header starts; page 1 begins with the
// database header.
func headerOffset(pageNo int) int {
	if pageNo == 1 {
		return DatabaseHeaderSize
	}
	return 0
}

// ReadPageHeader decodes the b-tree header of page pageNo and returns it
// with the offset of the cell pointer array.
func ReadPageHeader(page []byte, pageNo int) (BTreePageHeader, int, error) {
	pos := headerOffset(pageNo)
	if pos+leafHeaderSize > len(page) {
		return BTreePageHeader{}, 0, errors.Wrapf(ErrMalformedHeader,
			"page %d: header at %d does not fit in %d bytes", pageNo, pos, len(page))
	}
	pt, err := ParsePageType(page[pos])
	if err != nil {
		return BTreePageHeader{}, 0, errors.WithMessagef(err, "page %d", pageNo)
	}
	h := BTreePageHeader{
		Type:                pt,
		FirstFreeblock:      binary.BigEndian.Uint16(page[pos+1:]),
		CellCount:           binary.BigEndian.Uint16(page[pos+3:]),
		CellContentArea:     binary.BigEndian.Uint16(page[pos+5:]),
		FragmentedFreeBytes: page[pos+7],
	}
	pos += leafHeaderSize
	if pt.IsInterior() {
		if pos+4 > len(page) {
			return BTreePageHeader{}, 0, errors.Wrapf(ErrMalformedHeader,
				"page %d: right-most pointer at %d does not fit in %d bytes", pageNo, pos, len(page))
		}
		rightMost := binary.BigEndian.Uint32(page[pos:])
		h.RightMostPointer = &rightMost
		pos += 4
	}
	return h, pos, nil
}

// ReadPage decodes a b-tree page, treating text as UTF-8. pageNo is 1-based.
func ReadPage(page []byte, pageNo int) (*BTreePage, error) {
	return defaultDecoder.ReadPage(page, pageNo)
}

// ReadPage decodes the header, the cell pointer array and every cell of a
// b-tree page. pageNo is 1-based.
func (d Decoder) ReadPage(page []byte, pageNo int) (*BTreePage, error) {
	h, pos, err := ReadPageHeader(page, pageNo)
	if err != nil {
		return nil, err
	}
	count := int(h.CellCount)
	if end := pos + count*cellPointerSize; end > len(page) {
		return nil, errors.Wrapf(ErrOutOfBounds, "page %d: %d cell pointers at %d end past %d bytes",
			pageNo, count, pos, len(page))
	}
	p := &BTreePage{
		Header:       h,
		CellPointers: make([]uint16, count),
		Cells:        make([]BTreeCell, 0, count),
	}
	for i := range p.CellPointers {
		p.CellPointers[i] = binary.BigEndian.Uint16(page[pos:])
		pos += cellPointerSize
	}
	for i, ptr := range p.CellPointers {
		c, err := d.ReadCell(page, h.Type, int(ptr))
		if err != nil {
			return nil, errors.WithMessagef(err, "page %d cell %d", pageNo, i)
		}
		p.Cells = append(p.Cells, c)
	}
	return p, nil
}
