package limbo

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/thisismiller/limbo/ondisk"
	"github.com/ulikunitz/xz"
)

// Source is a page source that learns its page size from the database
// header after it is opened.
type Source interface {
	ondisk.PageSource
	SetPageSize(pageSize int)
	NumPages() int
	Close() error
}

// MemorySource serves pages from an in-memory copy of a database file.
type MemorySource struct {
	m        *sync.Mutex
	data     []byte
	pageSize int
}

func NewMemorySource(data []byte) *MemorySource {
	return &MemorySource{m: &sync.Mutex{}, data: data}
}

func (s *MemorySource) SetPageSize(pageSize int) {
	s.m.Lock()
	defer s.m.Unlock()
	s.pageSize = pageSize
}

func (s *MemorySource) NumPages() int {
	s.m.Lock()
	defer s.m.Unlock()
	return numPages(int64(len(s.data)), s.pageSize)
}

func (s *MemorySource) Get(pageNo int, out []byte) error {
	s.m.Lock()
	pageSize := s.pageSize
	s.m.Unlock()
	offset, err := pageOffset(pageNo, len(out), pageSize, int64(len(s.data)))
	if err != nil {
		return err
	}
	copy(out, s.data[offset:])
	return nil
}

func (s *MemorySource) Close() error { return nil }

// OpenSource opens a database file for reading. Files ending in ".xz" are
// decompressed into memory first.
func OpenSource(path string) (Source, error) {
	if !strings.HasSuffix(path, ".xz") {
		return NewDiskManager(path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := xz.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "open xz stream %s", path)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress %s", path)
	}
	return NewMemorySource(data), nil
}
