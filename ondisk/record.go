package ondisk

import "github.com/pkg/errors"

// Record is the ordered tuple of values stored in one cell payload.
type Record []Value

// ReadRecord decodes a record payload, treating text as UTF-8.
func ReadRecord(payload []byte) (Record, error) {
	return defaultDecoder.ReadRecord(payload)
}

// ReadRecord decodes a record payload: a varint header length that counts
// itself, the serial type codes filling the rest of the header, then one
// value per serial type.
func (d Decoder) ReadRecord(payload []byte) (Record, error) {
	types, pos, err := readRecordHeader(payload)
	if err != nil {
		return nil, err
	}
	rec := make(Record, 0, len(types))
	for i, st := range types {
		v, n, err := d.ReadValue(payload[pos:], st)
		if err != nil {
			return nil, errors.WithMessagef(err, "column %d", i)
		}
		pos += n
		rec = append(rec, v)
	}
	return rec, nil
}

// readRecordHeader returns the serial types of a record and the offset at
// which the record body starts.
func readRecordHeader(payload []byte) ([]SerialType, int, error) {
	size, n, err := ReadVarint(payload)
	if err != nil {
		return nil, 0, errors.WithMessage(err, "record header length")
	}
	if size < uint64(n) {
		return nil, 0, errors.Wrapf(ErrMalformedHeader, "record header length %d shorter than its own varint (%d)", size, n)
	}
	if size > uint64(len(payload)) {
		return nil, 0, errors.Wrapf(ErrMalformedHeader, "record header length %d exceeds payload of %d bytes", size, len(payload))
	}
	end := int(size)
	pos := n
	var types []SerialType
	for pos < end {
		code, n, err := ReadVarint(payload[pos:end])
		if err != nil {
			return nil, 0, errors.Wrapf(ErrMalformedHeader, "serial type at offset %d runs past header end %d", pos, end)
		}
		st, err := ResolveSerialType(code)
		if err != nil {
			return nil, 0, errors.WithMessagef(err, "column %d", len(types))
		}
		types = append(types, st)
		pos += n
	}
	return types, pos, nil
}
