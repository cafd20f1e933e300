package ondisk

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ReadRecord(t *testing.T) {
	cases := []struct {
		name   string
		values Record
	}{
		{"empty", Record{}},
		{"null", Record{Null{}}},
		{"constants", Record{Integer(0), Integer(1)}},
		{"mixed", Record{Integer(-5), Integer(70000), Float(3.25), Text("sqlite"), Blob{1, 2, 3}, Null{}}},
		{"wide ints", Record{Integer(-(1 << 23)), Integer(1 << 40), Integer(-(1 << 62))}},
		{"long text", Record{Text(string(make([]byte, 300)))}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			payload := encodeRecord(c.values...)
			rec, err := ReadRecord(payload)
			require.NoError(t, err)
			assert.Equal(t, c.values, rec)
		})
	}
}

func Test_ReadRecordConstZeroOnly(t *testing.T) {
	// header length 2, one serial type 8, no body
	rec, err := ReadRecord([]byte{0x02, 0x08})
	require.NoError(t, err)
	assert.Equal(t, Record{Integer(0)}, rec)
}

func Test_ReadRecordHeaderShorterThanItsVarint(t *testing.T) {
	_, err := ReadRecord([]byte{0x00, 0x01})
	assert.True(t, errors.Is(err, ErrMalformedHeader), "%v", err)
}

func Test_ReadRecordHeaderPastPayload(t *testing.T) {
	_, err := ReadRecord([]byte{0x05, 0x01})
	assert.True(t, errors.Is(err, ErrMalformedHeader), "%v", err)
}

func Test_ReadRecordSerialTypeCrossesHeaderEnd(t *testing.T) {
	// header claims 2 bytes but the serial type varint needs two
	_, err := ReadRecord([]byte{0x02, 0x81, 0x00})
	assert.True(t, errors.Is(err, ErrMalformedHeader), "%v", err)
}

func Test_ReadRecordBodyTruncated(t *testing.T) {
	payload := encodeRecord(Integer(1000), Text("hello"))
	_, err := ReadRecord(payload[:len(payload)-1])
	assert.True(t, errors.Is(err, ErrOutOfBounds), "%v", err)
}

func Test_ReadRecordReservedSerialType(t *testing.T) {
	_, err := ReadRecord([]byte{0x02, 0x0a})
	assert.True(t, errors.Is(err, ErrInvalidSerialType), "%v", err)
}

func Test_ReadRecordConsumesAtMostPayload(t *testing.T) {
	payload := encodeRecord(Integer(42), Text("abc"), Blob{9, 9})
	types, pos, err := readRecordHeader(payload)
	require.NoError(t, err)
	total := pos
	for _, st := range types {
		total += st.Size
	}
	assert.LessOrEqual(t, total, len(payload))
}
