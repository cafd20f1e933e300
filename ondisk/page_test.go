package ondisk

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ReadPageEmptyLeaf(t *testing.T) {
	page := make([]byte, 4096)
	page[0] = 13
	binary.BigEndian.PutUint16(page[5:], 4096-1)

	p, err := ReadPage(page, 2)
	require.NoError(t, err)
	assert.Equal(t, PageTypeTableLeaf, p.Header.Type)
	assert.Equal(t, uint16(0), p.Header.CellCount)
	assert.Equal(t, uint16(4095), p.Header.CellContentArea)
	assert.Nil(t, p.Header.RightMostPointer)
	assert.Empty(t, p.Cells)
	assert.Equal(t, 8, p.Header.Size())
}

func Test_ReadPageSingleConstZeroRow(t *testing.T) {
	page := make([]byte, 512)
	page[0] = 13
	binary.BigEndian.PutUint16(page[3:], 1)
	binary.BigEndian.PutUint16(page[8:], 100)
	// payload length 5, rowid 1, record header [2, 8]
	copy(page[100:], []byte{0x05, 0x01, 0x02, 0x08, 0x00, 0x00, 0x00})

	p, err := ReadPage(page, 2)
	require.NoError(t, err)
	require.Len(t, p.Cells, 1)
	leaf := p.Cells[0].(*TableLeafCell)
	assert.Equal(t, uint64(1), leaf.Rowid)
	assert.Len(t, leaf.Payload, 5)
	assert.Equal(t, []Record{{Integer(0)}}, p.Records())
}

func Test_ReadPageInvalidType(t *testing.T) {
	page := make([]byte, 512)
	page[0] = 7
	_, err := ReadPage(page, 2)
	assert.True(t, errors.Is(err, ErrInvalidPageType), "%v", err)
}

func Test_ReadPageCellPastBuffer(t *testing.T) {
	page := make([]byte, 512)
	page[0] = 13
	binary.BigEndian.PutUint16(page[3:], 1)
	binary.BigEndian.PutUint16(page[8:], 500)
	// payload length 200 but only 10 bytes remain
	page[500] = 0x81
	page[501] = 0x48
	page[502] = 0x01
	_, err := ReadPage(page, 2)
	assert.True(t, errors.Is(err, ErrOutOfBounds), "%v", err)
}

func Test_ReadPageCellPointersPastBuffer(t *testing.T) {
	page := make([]byte, 512)
	page[0] = 13
	binary.BigEndian.PutUint16(page[3:], 300)
	_, err := ReadPage(page, 2)
	assert.True(t, errors.Is(err, ErrOutOfBounds), "%v", err)
}

func Test_ReadPageHeaderTooShort(t *testing.T) {
	_, _, err := ReadPageHeader(make([]byte, 4), 2)
	assert.True(t, errors.Is(err, ErrMalformedHeader), "%v", err)

	short := make([]byte, 10)
	short[0] = byte(PageTypeTableInterior)
	_, _, err = ReadPageHeader(short, 2)
	assert.True(t, errors.Is(err, ErrMalformedHeader), "%v", err)
}

func Test_ReadPageInteriorHeader(t *testing.T) {
	page := make([]byte, 512)
	page[0] = byte(PageTypeTableInterior)
	binary.BigEndian.PutUint16(page[1:], 0)
	binary.BigEndian.PutUint16(page[5:], 480)
	page[7] = 3
	binary.BigEndian.PutUint32(page[8:], 42)

	h, pos, err := ReadPageHeader(page, 2)
	require.NoError(t, err)
	require.NotNil(t, h.RightMostPointer)
	assert.Equal(t, uint32(42), *h.RightMostPointer)
	assert.Equal(t, uint8(3), h.FragmentedFreeBytes)
	assert.Equal(t, 12, pos)
	assert.Equal(t, 12, h.Size())

	// no cells: nothing to decode
	p, err := ReadPage(page, 2)
	require.NoError(t, err)
	assert.Empty(t, p.Cells)

	// interior cells are not decoded
	binary.BigEndian.PutUint16(page[3:], 1)
	binary.BigEndian.PutUint16(page[12:], 480)
	_, err = ReadPage(page, 2)
	assert.True(t, errors.Is(err, ErrUnsupportedCell), "%v", err)
}

func Test_ReadPageOne(t *testing.T) {
	rows := []pageCell{
		{rowid: 1, payload: encodeRecord(Text("table"), Text("t"), Text("t"), Integer(2), Text("CREATE TABLE t(a)"))},
	}
	page := buildLeafPage(1024, 1, rows...)
	p, err := ReadPage(page, 1)
	require.NoError(t, err)
	require.Len(t, p.Cells, 1)
	assert.Equal(t, Record{Text("table"), Text("t"), Text("t"), Integer(2), Text("CREATE TABLE t(a)")}, p.Records()[0])

	// read as a non-first page the header bytes are garbage
	_, err = ReadPage(page, 2)
	assert.Error(t, err)
}

func Test_ReadPageKeepsPointerOrder(t *testing.T) {
	page := buildLeafPage(1024, 3,
		pageCell{rowid: 5, payload: encodeRecord(Integer(50))},
		pageCell{rowid: 2, payload: encodeRecord(Integer(20))},
		pageCell{rowid: 9, payload: encodeRecord(Integer(90))},
	)
	p, err := ReadPage(page, 3)
	require.NoError(t, err)
	require.Len(t, p.Cells, 3)
	var rowids []uint64
	for _, c := range p.Cells {
		rowids = append(rowids, c.(*TableLeafCell).Rowid)
	}
	assert.Equal(t, []uint64{5, 2, 9}, rowids)
	assert.Len(t, p.CellPointers, 3)
}

func Test_PageTypeParse(t *testing.T) {
	for b := 0; b < 256; b++ {
		pt, err := ParsePageType(byte(b))
		switch b {
		case 2, 5, 10, 13:
			require.NoError(t, err)
			assert.Equal(t, PageType(b), pt)
			assert.NotEqual(t, pt.IsLeaf(), pt.IsInterior())
		default:
			assert.True(t, errors.Is(err, ErrInvalidPageType))
		}
	}
}
