package ondisk

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ResolveSerialTypeFixed(t *testing.T) {
	want := map[uint64]SerialType{
		0: {SerialNull, 0},
		1: {SerialInt8, 1},
		2: {SerialInt16, 2},
		3: {SerialInt24, 3},
		4: {SerialInt32, 4},
		5: {SerialInt48, 6},
		6: {SerialInt64, 8},
		7: {SerialFloat64, 8},
		8: {SerialConst0, 0},
		9: {SerialConst1, 0},
	}
	for code, st := range want {
		got, err := ResolveSerialType(code)
		require.NoError(t, err)
		assert.Equal(t, st, got, "code %d", code)
		assert.Equal(t, code, got.Code())
	}
}

func Test_ResolveSerialTypeReserved(t *testing.T) {
	for _, code := range []uint64{10, 11} {
		_, err := ResolveSerialType(code)
		assert.True(t, errors.Is(err, ErrInvalidSerialType), "code %d", code)
	}
}

func Test_ResolveSerialTypeLengths(t *testing.T) {
	for n := uint64(12); n < 4096; n++ {
		st, err := ResolveSerialType(n)
		require.NoError(t, err)
		if n%2 == 0 {
			assert.Equal(t, SerialType{SerialBlob, int((n - 12) / 2)}, st)
		} else {
			assert.Equal(t, SerialType{SerialText, int((n - 13) / 2)}, st)
		}
		assert.Equal(t, n, st.Code())
	}
}

func Test_SerialTypeString(t *testing.T) {
	assert.Equal(t, "int24", SerialType{Kind: SerialInt24, Size: 3}.String())
	assert.Equal(t, "text(5)", SerialType{Kind: SerialText, Size: 5}.String())
}
