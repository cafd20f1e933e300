package limbo

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/thisismiller/limbo/ondisk"
)

// DiskManager reads pages of a database file. Until SetPageSize is called
// only page 1 can be read, which is enough to decode the database header.
type DiskManager struct {
	m        *sync.Mutex
	f        *os.File
	size     int64
	pageSize int
}

func NewDiskManager(filename string) (*DiskManager, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &DiskManager{
		m:    &sync.Mutex{},
		f:    f,
		size: fi.Size(),
	}, nil
}

func (d *DiskManager) SetPageSize(pageSize int) {
	d.m.Lock()
	defer d.m.Unlock()
	d.pageSize = pageSize
}

// NumPages is the number of whole pages in the file.
func (d *DiskManager) NumPages() int {
	d.m.Lock()
	defer d.m.Unlock()
	return numPages(d.size, d.pageSize)
}

// Get reads the first len(out) bytes of page pageNo.
func (d *DiskManager) Get(pageNo int, out []byte) error {
	d.m.Lock()
	pageSize, size := d.pageSize, d.size
	d.m.Unlock()
	offset, err := pageOffset(pageNo, len(out), pageSize, size)
	if err != nil {
		return err
	}
	n, err := d.f.ReadAt(out, offset)
	if err != nil && !(err == io.EOF && n == len(out)) {
		return errors.Wrapf(err, "read page %d at offset %d", pageNo, offset)
	}
	return nil
}

func (d *DiskManager) Close() error {
	return d.f.Close()
}

func numPages(size int64, pageSize int) int {
	if pageSize == 0 {
		if size >= ondisk.DatabaseHeaderSize {
			return 1
		}
		return 0
	}
	return int(size / int64(pageSize))
}

// pageOffset checks that n bytes of page pageNo lie inside a file of size
// bytes and returns where they start.
func pageOffset(pageNo, n, pageSize int, size int64) (int64, error) {
	if pageNo < 1 || pageNo > numPages(size, pageSize) {
		return 0, errors.Wrapf(ErrPageNotFound, "page %d of %d", pageNo, numPages(size, pageSize))
	}
	if pageSize != 0 && n > pageSize {
		return 0, errors.Errorf("buffer of %d bytes larger than page size %d", n, pageSize)
	}
	offset := int64(pageNo-1) * int64(pageSize)
	if offset+int64(n) > size {
		return 0, errors.Errorf("page %d: %d bytes at offset %d past end of file (%d bytes)", pageNo, n, offset, size)
	}
	return offset, nil
}
