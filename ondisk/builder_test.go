package ondisk

import (
	"encoding/binary"
	"math"
)

// encodeRecord builds a record payload the way SQLite lays it out, picking
// the smallest serial type for each value.
func encodeRecord(values ...Value) []byte {
	var header, body []byte
	var tmp [MaxVarintLen]byte
	for _, v := range values {
		st, data := encodeValue(v)
		n := PutVarint(tmp[:], st.Code())
		header = append(header, tmp[:n]...)
		body = append(body, data...)
	}
	// header length counts its own varint
	size := uint64(len(header) + 1)
	if VarintLen(size) > 1 {
		size++
	}
	n := PutVarint(tmp[:], size)
	out := append([]byte{}, tmp[:n]...)
	out = append(out, header...)
	return append(out, body...)
}

func encodeValue(v Value) (SerialType, []byte) {
	switch v := v.(type) {
	case Null:
		return SerialType{Kind: SerialNull}, nil
	case Integer:
		return encodeInt(int64(v))
	case Float:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, math.Float64bits(float64(v)))
		return SerialType{Kind: SerialFloat64, Size: 8}, b
	case Text:
		return SerialType{Kind: SerialText, Size: len(v)}, []byte(v)
	case Blob:
		return SerialType{Kind: SerialBlob, Size: len(v)}, []byte(v)
	}
	panic("unreachable")
}

func encodeInt(i int64) (SerialType, []byte) {
	if i == 0 {
		return SerialType{Kind: SerialConst0}, nil
	}
	if i == 1 {
		return SerialType{Kind: SerialConst1}, nil
	}
	for _, st := range fixedSerialTypes[SerialInt8 : SerialInt64+1] {
		bits := uint(st.Size * 8)
		if bits == 64 || (i >= -(1<<(bits-1)) && i < 1<<(bits-1)) {
			b := make([]byte, st.Size)
			u := uint64(i)
			for j := st.Size - 1; j >= 0; j-- {
				b[j] = byte(u)
				u >>= 8
			}
			return st, b
		}
	}
	panic("unreachable")
}

type pageCell struct {
	rowid   uint64
	payload []byte
}

// buildLeafPage lays out a table leaf page: header, cell pointer array, and
// cells packed at the end of the page.
func buildLeafPage(pageSize, pageNo int, cells ...pageCell) []byte {
	page := make([]byte, pageSize)
	pos := 0
	if pageNo == 1 {
		pos = DatabaseHeaderSize
	}
	page[pos] = byte(PageTypeTableLeaf)
	binary.BigEndian.PutUint16(page[pos+3:], uint16(len(cells)))
	ptr := pos + leafHeaderSize
	end := pageSize
	var tmp [MaxVarintLen]byte
	for _, c := range cells {
		var cell []byte
		n := PutVarint(tmp[:], uint64(len(c.payload)))
		cell = append(cell, tmp[:n]...)
		n = PutVarint(tmp[:], c.rowid)
		cell = append(cell, tmp[:n]...)
		cell = append(cell, c.payload...)
		end -= len(cell)
		copy(page[end:], cell)
		binary.BigEndian.PutUint16(page[ptr:], uint16(end))
		ptr += cellPointerSize
	}
	binary.BigEndian.PutUint16(page[pos+5:], uint16(end))
	return page
}
