// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Heap ties the arena, the free-list index and the OS-chunk registry
// together and implements chunk acquisition and growth-time
// fencepost-elision coalescing (spec.md §4.2, §4.6).

package malloc

import "sync"

// Heap is an independent allocator instance: its own arena, free lists and
// lock. The package-level Malloc/Free/Calloc/Realloc/Verify functions in
// malloc.go delegate to one process-wide Heap; tests build additional ones
// via New to exercise edge cases in isolation.
type Heap struct {
	mu  sync.Mutex
	cfg Config

	arena *arena
	fl    *freeList

	// chunks holds the left-fencepost handle of every chunk that was
	// registered as independent rather than merged into its predecessor,
	// in acquisition order, bounded by cfg.MaxOSChunks. Only chunks[0] is
	// guaranteed to still hold a live fencepost header by the time Verify
	// or Stats runs (see verify.go); later entries exist only so Chunks
	// accounting is accurate should growth ever stop being contiguous.
	chunks []hdr

	// lastFencePost is the right fencepost of the most recently acquired
	// chunk, or nilHdr before the first chunk exists. Growth compares the
	// new chunk's left-fencepost address against this to detect
	// chunk-adjacency (spec.md §4.6).
	lastFencePost hdr
}

// New builds an independent Heap per cfg, acquiring its first OS chunk
// immediately (the reference performs the equivalent eager first sbrk in
// its one-shot init hook).
func New(cfg Config) (*Heap, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	a, err := newArena(cfg.Reserve)
	if err != nil {
		return nil, err
	}

	h := &Heap{
		cfg:   cfg,
		arena: a,
		fl:    newFreeList(cfg.NumLists),
	}

	if err := h.acquireChunk(cfg.ArenaSize); err != nil {
		a.release()
		return nil, err
	}

	return h, nil
}

// Close releases the heap's address-space reservation. The process-global
// heap in malloc.go is never closed; this exists for tests that construct
// many short-lived Heaps and would otherwise exhaust address space.
func (h *Heap) Close() error {
	return h.arena.release()
}

// pushFree inserts a free block into the list matching its body size,
// at the front of that list's survivors. Used at growth time, and by
// deallocate when no coalesced neighbor held a catch-all position to keep.
func (h *Heap) pushFree(n hdr) {
	c := classOf(n.size()-H, h.cfg.NumLists)
	pushFront(h.fl.sentinel(c), n)
}

// acquireChunk commits size more bytes from the arena, brackets them with
// fenceposts, and either registers the resulting free block as a new chunk
// or — if the new chunk landed immediately adjacent to the previous one in
// memory — elides both fenceposts and coalesces across the former chunk
// boundary (spec.md §4.6). Per spec.md §3, a chunk merged away this way is
// never registered: it was never an independent chunk to begin with, so it
// must not consume a slot in cfg.MaxOSChunks. Since this arena's growth is
// always contiguous (arena.go), every growth after the first takes the
// merge path, and the registry check below only ever actually gates the
// very first chunk.
func (h *Heap) acquireChunk(size int64) error {
	adjacent := !h.lastFencePost.isNil()
	if !adjacent && len(h.chunks) >= h.cfg.MaxOSChunks {
		return ErrArenaExhausted
	}

	base, err := h.arena.grow(uintptr(size))
	if err != nil {
		return err
	}

	left := hdr(base)
	left.setLeftSize(0)
	left.setSize(uint64(H))
	left.setState(stateFencepost)

	freeSize := uint64(size) - 2*uint64(H) // free block's own size(), header included
	free := hdr(base + uintptr(H))
	free.setLeftSize(uint64(H))
	free.setSize(freeSize)
	free.setState(stateUnallocated)

	right := hdr(base + uintptr(size) - uintptr(H))
	right.setLeftSize(freeSize)
	right.setSize(uint64(H))
	right.setState(stateFencepost)

	if adjacent && uintptr(left)-uintptr(H) == uintptr(h.lastFencePost) {
		h.mergeAdjacent(h.lastFencePost, free)
	} else {
		h.chunks = append(h.chunks, left)
		h.pushFree(free)
	}

	h.lastFencePost = right
	return nil
}

// mergeAdjacent elides prevRight (the previous chunk's right fencepost)
// together with the left fencepost immediately following it — which by
// construction sits at uintptr(prevRight)+H, since acquireChunk never
// installs anything between the two — and merges the 2*H bytes they
// occupied into whatever lies on either side, restoring a single
// contiguous run of blocks across the former chunk boundary.
//
// The merged block necessarily starts at or before prevRight's own
// address: the elided fencepost pair sits behind newFree, not ahead of
// it, so there is no surviving block to its own left to extend forward
// from. prevRight's header is itself repurposed as the merged block's
// header when the block immediately before it was not free.
func (h *Heap) mergeAdjacent(prevRight, newFree hdr) {
	merged := prevRight
	mergedSize := uint64(2*H) + newFree.size()

	if left := prevRight.left(); left.state() == stateUnallocated {
		unlinkFree(left)
		mergedSize += left.size()
		merged = left
	}

	// merged.leftSize() already mirrors whatever lies to its own left
	// (either prevRight's former mirror, reused verbatim, or left's own,
	// untouched) and needs no update.
	merged.setSize(mergedSize)
	merged.setState(stateUnallocated)

	right := merged.right()
	right.setLeftSize(mergedSize)

	h.pushFree(merged)
}
