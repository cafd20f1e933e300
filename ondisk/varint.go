package ondisk

// MaxVarintLen is the longest encoding of a 64-bit varint.
const MaxVarintLen = 9

// ReadVarint decodes a SQLite varint from the start of buf and returns the
// value and the number of bytes consumed.
//
// Bytes one to eight carry 7 bits each, most significant group first, with
// the high bit set while more bytes follow. A ninth byte, when reached,
// carries a full 8 bits and ends the encoding unconditionally. This is the
// layout described at https://www.sqlite.org/fileformat2.html#varint.
func ReadVarint(buf []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < MaxVarintLen; i++ {
		if i >= len(buf) {
			return 0, 0, outOfBounds("varint", i+1, len(buf))
		}
		b := buf[i]
		if i == MaxVarintLen-1 {
			return v<<8 | uint64(b), MaxVarintLen, nil
		}
		v = v<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	// unreachable: the ninth byte always returns
	return v, MaxVarintLen, nil
}

// PutVarint writes the minimal encoding of v into buf, which must hold at
// least VarintLen(v) bytes, and returns the number of bytes written.
func PutVarint(buf []byte, v uint64) int {
	if v&(uint64(0xff)<<56) != 0 {
		buf[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			buf[i] = byte(v&0x7f) | 0x80
			v >>= 7
		}
		return MaxVarintLen
	}
	n := VarintLen(v)
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(v & 0x7f)
		if i < n-1 {
			buf[i] |= 0x80
		}
		v >>= 7
	}
	return n
}

// VarintLen returns the number of bytes PutVarint uses for v.
func VarintLen(v uint64) int {
	if v&(uint64(0xff)<<56) != 0 {
		return MaxVarintLen
	}
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}
