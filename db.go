// Package limbo reads SQLite database files page by page.
//
// A DB decodes the database header once, then serves b-tree pages through a
// BufferPool. Decoding is done by package ondisk on the pinned frame and
// every returned value is a copy, so frames are released before ReadPage
// returns.
package limbo

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/thisismiller/limbo/logger"
	"github.com/thisismiller/limbo/ondisk"
	"github.com/zeebo/blake3"
)

const DefaultPoolFrames = 64

type Options struct {
	// PoolFrames is the number of pages the buffer pool caches.
	PoolFrames int
}

type DB struct {
	src    Source
	pool   *BufferPool
	header *ondisk.DatabaseHeader
	dec    ondisk.Decoder
}

// Open opens the database file at path.
func Open(path string, opts Options) (*DB, error) {
	src, err := OpenSource(path)
	if err != nil {
		return nil, err
	}
	db, err := New(src, opts)
	if err != nil {
		src.Close()
		return nil, errors.WithMessagef(err, "open %s", path)
	}
	logger.WithFields(logrus.Fields{
		"path":      path,
		"page_size": db.header.PageSizeBytes(),
		"pages":     db.PageCount(),
		"encoding":  db.dec.Encoding,
	}).Debugf("opened database")
	return db, nil
}

// New reads the database header from src and sets up the page cache.
func New(src Source, opts Options) (*DB, error) {
	h, err := ondisk.ReadDatabaseHeader(src)
	if err != nil {
		return nil, err
	}
	src.SetPageSize(h.PageSizeBytes())
	frames := opts.PoolFrames
	if frames <= 0 {
		frames = DefaultPoolFrames
	}
	return &DB{
		src:    src,
		pool:   NewBufferPool(frames, h.PageSizeBytes(), src),
		header: h,
		dec:    ondisk.NewDecoder(h),
	}, nil
}

func (db *DB) Header() *ondisk.DatabaseHeader {
	return db.header
}

// PageCount is the database size in pages. The header field is trusted
// only when its version-valid-for number matches the change counter, as
// older writers did not maintain it.
func (db *DB) PageCount() int {
	h := db.header
	if h.DatabaseSize != 0 && h.VersionValidFor == h.ChangeCounter {
		return int(h.DatabaseSize)
	}
	return db.src.NumPages()
}

// withPage runs fn on the pinned bytes of page pageNo. fn must not keep
// the slice. A decode failure evicts the page so a retry reads it again.
func (db *DB) withPage(pageNo int, fn func(data []byte) error) error {
	page, err := db.pool.FetchPage(pageNo)
	if err != nil {
		return err
	}
	err = fn(page.Data())
	page.Release()
	if err != nil {
		db.pool.Discard(pageNo)
		logger.WithFields(logrus.Fields{"page": pageNo, "err": err}).Warnf("page decode failed")
	}
	return err
}

// ReadPage decodes b-tree page pageNo.
func (db *DB) ReadPage(pageNo int) (*ondisk.BTreePage, error) {
	var p *ondisk.BTreePage
	err := db.withPage(pageNo, func(data []byte) error {
		var err error
		p, err = db.dec.ReadPage(data, pageNo)
		return err
	})
	return p, err
}

// ReadPageHeader decodes only the b-tree header of page pageNo.
func (db *DB) ReadPageHeader(pageNo int) (ondisk.BTreePageHeader, error) {
	var h ondisk.BTreePageHeader
	err := db.withPage(pageNo, func(data []byte) error {
		var err error
		h, _, err = ondisk.ReadPageHeader(data, pageNo)
		return err
	})
	return h, err
}

// Records returns the records stored on table leaf page pageNo.
func (db *DB) Records(pageNo int) ([]ondisk.Record, error) {
	p, err := db.ReadPage(pageNo)
	if err != nil {
		return nil, err
	}
	return p.Records(), nil
}

// PageDigest returns the hex BLAKE3 hash of the raw bytes of page pageNo.
func (db *DB) PageDigest(pageNo int) (string, error) {
	var sum [32]byte
	err := db.withPage(pageNo, func(data []byte) error {
		sum = blake3.Sum256(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum[:]), nil
}

func (db *DB) Close() error {
	return db.src.Close()
}
