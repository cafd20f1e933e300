package limbo

import (
	"container/list"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/thisismiller/limbo/logger"
	"github.com/thisismiller/limbo/ondisk"
)

var (
	ErrPoolFull     = errors.New("buffer pool full")
	ErrPageNotFound = errors.New("page not found")
)

const invalidPageNo = 0

// BufferPool caches raw pages read from a page source in a fixed number of
// page-sized frames. Pages are read-only; a fetched page stays pinned until
// it is released and pinned frames are never reused.
type BufferPool struct {
	size      int
	pageSize  int
	source    ondisk.PageSource
	pages     []Page
	pageTable map[int]*Page
	replacer  Replacer
	freeList  *list.List
	mu        *sync.Mutex
}

func NewBufferPool(size, pageSize int, src ondisk.PageSource) *BufferPool {
	b := &BufferPool{
		size:      size,
		pageSize:  pageSize,
		source:    src,
		pages:     make([]Page, size),
		pageTable: map[int]*Page{},
		replacer:  NewLRUReplacer(size),
		freeList:  list.New(),
		mu:        &sync.Mutex{},
	}
	for idx := range b.pages {
		b.pages[idx] = Page{
			frameID: idx,
			pageNo:  invalidPageNo,
			data:    make([]byte, pageSize),
			mu:      &sync.RWMutex{},
			pool:    b,
		}
		b.freeList.PushBack(idx)
	}
	return b
}

// lockedFreeFrame takes a frame from the free list, or else evicts one.
func (b *BufferPool) lockedFreeFrame() (int, bool) {
	if b.freeList.Len() != 0 {
		free := b.freeList.Front()
		b.freeList.Remove(free)
		return free.Value.(int), true
	}
	return b.replacer.Victim()
}

// FetchPage returns page pageNo pinned, reading it from the source on a
// miss. The caller must Release it when done with its data.
func (b *BufferPool) FetchPage(pageNo int) (*Page, error) {
	var (
		page     *Page
		inBuffer bool
		full     bool
	)
	locked(b.mu, func() {
		page = b.pageTable[pageNo]
		if page != nil {
			if page.pinCount == 0 {
				b.replacer.Pin(page.frameID)
			}
			page.pinCount++
			inBuffer = true
			return
		}
		frameID, ok := b.lockedFreeFrame()
		if !ok {
			full = true
			return
		}
		page = &b.pages[frameID]
		if page.pageNo != invalidPageNo {
			delete(b.pageTable, page.pageNo)
		}
		page.assign(pageNo)
		page.pinCount = 1
		b.pageTable[pageNo] = page
		// hold the frame until its data is in, other fetchers of the same
		// page wait on it
		page.mu.Lock()
	})
	if full {
		return nil, errors.Wrapf(ErrPoolFull, "fetch page %d: all %d frames pinned", pageNo, b.size)
	}
	if inBuffer {
		page.mu.RLock()
		page.mu.RUnlock()
		var err error
		locked(b.mu, func() { err = page.err })
		if err != nil {
			b.UnpinPage(pageNo)
			return nil, err
		}
		return page, nil
	}

	logger.WithFields(logrus.Fields{"page": pageNo, "frame": page.frameID}).Debugf("page miss")
	err := b.source.Get(pageNo, page.data)
	if err != nil {
		err = errors.WithMessagef(err, "read page %d", pageNo)
	}
	locked(b.mu, func() { page.err = err })
	page.mu.Unlock()
	if err != nil {
		b.UnpinPage(pageNo)
		return nil, err
	}
	return page, nil
}

// UnpinPage drops one pin on pageNo. It returns false if the page is not
// cached or was not pinned.
func (b *BufferPool) UnpinPage(pageNo int) bool {
	var ok bool
	locked(b.mu, func() {
		page := b.pageTable[pageNo]
		if page == nil || page.pinCount == 0 {
			return
		}
		ok = true
		page.pinCount--
		if page.pinCount > 0 {
			return
		}
		if page.err != nil {
			// failed reads are not cached
			b.lockedDrop(page)
			return
		}
		b.replacer.Unpin(page.frameID)
	})
	return ok
}

// Discard removes pageNo from the cache so the next fetch reads it from the
// source again. It returns false if the page is still pinned.
func (b *BufferPool) Discard(pageNo int) bool {
	ok := true
	locked(b.mu, func() {
		page := b.pageTable[pageNo]
		if page == nil {
			return
		}
		if page.pinCount != 0 {
			ok = false
			return
		}
		b.replacer.Pin(page.frameID)
		b.lockedDrop(page)
	})
	return ok
}

func (b *BufferPool) lockedDrop(page *Page) {
	delete(b.pageTable, page.pageNo)
	page.reset()
	b.freeList.PushFront(page.frameID)
}

// Cached returns the number of pages currently held by the pool.
func (b *BufferPool) Cached() int {
	var n int
	locked(b.mu, func() { n = len(b.pageTable) })
	return n
}

// Page is one pool frame holding a cached page.
type Page struct {
	frameID  int
	pageNo   int
	pinCount int
	data     []byte
	err      error
	mu       *sync.RWMutex
	pool     *BufferPool
}

// Data returns the raw page bytes. The slice is only valid until Release.
func (p *Page) Data() []byte {
	return p.data
}

func (p *Page) PageNo() int {
	return p.pageNo
}

// Release unpins the page; p must not be used afterwards.
func (p *Page) Release() {
	p.pool.UnpinPage(p.pageNo)
}

func (p *Page) assign(pageNo int) {
	p.pageNo = pageNo
	p.err = nil
	clear(p.data)
}

func (p *Page) reset() {
	p.pageNo = invalidPageNo
	p.pinCount = 0
	p.err = nil
}

func locked(m sync.Locker, h func()) {
	m.Lock()
	defer m.Unlock()
	h()
}
