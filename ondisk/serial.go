package ondisk

import (
	"fmt"

	"github.com/pkg/errors"
)

// SerialKind is the storage class of one record column.
type SerialKind uint8

const (
	SerialNull SerialKind = iota
	SerialInt8
	SerialInt16
	SerialInt24
	SerialInt32
	SerialInt48
	SerialInt64
	SerialFloat64
	SerialConst0
	SerialConst1
	SerialBlob
	SerialText
)

var serialKindNames = [...]string{
	SerialNull:    "null",
	SerialInt8:    "int8",
	SerialInt16:   "int16",
	SerialInt24:   "int24",
	SerialInt32:   "int32",
	SerialInt48:   "int48",
	SerialInt64:   "int64",
	SerialFloat64: "float64",
	SerialConst0:  "const0",
	SerialConst1:  "const1",
	SerialBlob:    "blob",
	SerialText:    "text",
}

func (k SerialKind) String() string {
	if int(k) < len(serialKindNames) {
		return serialKindNames[k]
	}
	return fmt.Sprintf("SerialKind(%d)", uint8(k))
}

// SerialType describes how one column value is laid out in a record body.
// Size is the number of body bytes the value occupies.
type SerialType struct {
	Kind SerialKind
	Size int
}

// fixed-width kinds indexed by serial type code 0..9
var fixedSerialTypes = [...]SerialType{
	{SerialNull, 0},
	{SerialInt8, 1},
	{SerialInt16, 2},
	{SerialInt24, 3},
	{SerialInt32, 4},
	{SerialInt48, 6},
	{SerialInt64, 8},
	{SerialFloat64, 8},
	{SerialConst0, 0},
	{SerialConst1, 0},
}

// ResolveSerialType maps a serial type code from a record header to its
// SerialType. Codes 10 and 11 are reserved and rejected.
func ResolveSerialType(code uint64) (SerialType, error) {
	switch {
	case code < uint64(len(fixedSerialTypes)):
		return fixedSerialTypes[code], nil
	case code == 10 || code == 11:
		return SerialType{}, errors.Wrapf(ErrInvalidSerialType, "code %d", code)
	case code%2 == 0:
		return SerialType{Kind: SerialBlob, Size: int((code - 12) / 2)}, nil
	default:
		return SerialType{Kind: SerialText, Size: int((code - 13) / 2)}, nil
	}
}

// Code returns the serial type code that resolves to st.
func (st SerialType) Code() uint64 {
	switch st.Kind {
	case SerialBlob:
		return uint64(st.Size)*2 + 12
	case SerialText:
		return uint64(st.Size)*2 + 13
	default:
		return uint64(st.Kind)
	}
}

func (st SerialType) String() string {
	switch st.Kind {
	case SerialBlob, SerialText:
		return fmt.Sprintf("%s(%d)", st.Kind, st.Size)
	default:
		return st.Kind.String()
	}
}
