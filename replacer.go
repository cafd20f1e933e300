package limbo

import (
	lru "github.com/hashicorp/golang-lru"
)

// Replacer picks which unpinned frame to reuse when the pool has no free
// frame left.
type Replacer interface {
	// Victim removes and returns the frame to evict, if any.
	Victim() (int, bool)

	// Pin stops frameID from being chosen as a victim.
	Pin(frameID int)

	// Unpin makes frameID a victim candidate.
	Unpin(frameID int)

	// Size is the number of victim candidates.
	Size() int
}

// LRUReplacer evicts the frame that was unpinned least recently.
type LRUReplacer struct {
	frames *lru.Cache
}

func NewLRUReplacer(numFrames int) *LRUReplacer {
	c, err := lru.New(numFrames)
	if err != nil {
		panic(err)
	}
	return &LRUReplacer{frames: c}
}

func (r *LRUReplacer) Pin(frameID int) {
	r.frames.Remove(frameID)
}

func (r *LRUReplacer) Victim() (int, bool) {
	key, _, ok := r.frames.RemoveOldest()
	if !ok {
		return 0, false
	}
	return key.(int), true
}

func (r *LRUReplacer) Unpin(frameID int) {
	r.frames.ContainsOrAdd(frameID, struct{}{})
}

func (r *LRUReplacer) Size() int { return r.frames.Len() }
