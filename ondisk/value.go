package ondisk

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Value is one decoded column value: Null, Integer, Float, Text or Blob.
type Value interface {
	isValue()
}

type (
	Null    struct{}
	Integer int64
	Float   float64
	Text    string
	Blob    []byte
)

func (Null) isValue()    {}
func (Integer) isValue() {}
func (Float) isValue()   {}
func (Text) isValue()    {}
func (Blob) isValue()    {}

// FormatValue renders v the way the sqlite3 shell would print it.
func FormatValue(v Value) string {
	switch v := v.(type) {
	case Null:
		return "NULL"
	case Integer:
		return fmt.Sprintf("%d", int64(v))
	case Float:
		return fmt.Sprintf("%g", float64(v))
	case Text:
		return string(v)
	case Blob:
		return fmt.Sprintf("x'%x'", []byte(v))
	default:
		panic(fmt.Sprintf("unknown value %T", v))
	}
}

// ReadValue decodes one value of serial type st from the start of buf,
// treating text as UTF-8. It returns the value and the bytes consumed,
// which is always st.Size.
func ReadValue(buf []byte, st SerialType) (Value, int, error) {
	return defaultDecoder.ReadValue(buf, st)
}

// ReadValue decodes one value of serial type st from the start of buf.
func (d Decoder) ReadValue(buf []byte, st SerialType) (Value, int, error) {
	n := st.Size
	if n > len(buf) {
		return nil, 0, outOfBounds(st.String()+" value", n, len(buf))
	}
	b := buf[:n]
	switch st.Kind {
	case SerialNull:
		return Null{}, 0, nil
	case SerialConst0:
		return Integer(0), 0, nil
	case SerialConst1:
		return Integer(1), 0, nil
	case SerialInt8, SerialInt16, SerialInt24, SerialInt32, SerialInt48, SerialInt64:
		return Integer(readInt(b)), n, nil
	case SerialFloat64:
		return Float(math.Float64frombits(binary.BigEndian.Uint64(b))), n, nil
	case SerialBlob:
		out := make([]byte, n)
		copy(out, b)
		return Blob(out), n, nil
	case SerialText:
		s, err := d.Encoding.decode(b)
		if err != nil {
			return nil, 0, err
		}
		return Text(s), n, nil
	default:
		return nil, 0, errors.Wrapf(ErrInvalidSerialType, "kind %s", st.Kind)
	}
}

// readInt decodes a big-endian two's complement integer of 1 to 8 bytes,
// sign-extending from the top bit of b[0].
func readInt(b []byte) int64 {
	var v int64
	if b[0]&0x80 != 0 {
		v = -1
	}
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}
