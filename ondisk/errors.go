package ondisk

import "github.com/pkg/errors"

var (
	// ErrMalformedHeader is returned when a database, page or record header
	// has the wrong length or declares bounds that cannot hold.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrInvalidPageType is returned for a page type byte outside {2,5,10,13}.
	ErrInvalidPageType = errors.New("invalid page type")
	// ErrInvalidSerialType is returned for the reserved serial types 10 and 11.
	ErrInvalidSerialType = errors.New("invalid serial type")
	// ErrOutOfBounds is returned when a length or offset runs past the buffer.
	ErrOutOfBounds = errors.New("out of bounds")
	// ErrUnsupportedCell is returned for interior and index cells.
	ErrUnsupportedCell = errors.New("unsupported cell variant")
	// ErrInvalidEncoding is returned when text bytes are not valid under the
	// database text encoding.
	ErrInvalidEncoding = errors.New("invalid text encoding")
)

func outOfBounds(what string, need, have int) error {
	return errors.Wrapf(ErrOutOfBounds, "%s: need %d bytes, have %d", what, need, have)
}
