// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The allocation algorithm: free-list search, chunk growth on exhaustion,
// and split-with-position-preserving-reinsertion (spec.md §4.4).

package malloc

import (
	"math"
	"unsafe"
)

// minBodySize is the smallest body a block can have: enough to hold the
// next/prev link words once the block is freed (see header.go), even
// though the free-list index's own size classes start at 8 bytes.
const minBodySize = 16

// minSplitRemainder is the smallest body a split remainder may have; below
// this the remainder could never itself be freed and relinked, so the
// whole found block is handed to the caller instead, wasting the
// difference as internal fragmentation.
const minSplitRemainder = 16

func roundUp8(n uint64) uint64 { return (n + 7) &^ 7 }

// findFree returns the first block able to satisfy a request for body
// bytes, or nilHdr if none exists in the current chunks. Exact classes
// (every class but the catch-all) hold only blocks of exactly that size,
// so any occupant of the first non-empty exact class at or above
// classOf(body) satisfies the request; the catch-all class is searched
// first-fit.
func (h *Heap) findFree(body uint64) hdr {
	class := classOf(body, h.cfg.NumLists)
	catchAll := h.fl.catchAll()

	for c := class; c < h.cfg.NumLists; c++ {
		sentinel := h.fl.sentinel(c)
		if c == catchAll {
			for cur := sentinel.next(); cur != sentinel; cur = cur.next() {
				if cur.size()-H >= body {
					return cur
				}
			}
			continue
		}
		if h.fl.empty(c) {
			continue
		}
		return sentinel.next()
	}
	return nilHdr
}

// allocate implements my_malloc: find-or-grow, split, return a data
// pointer, or nil on invalid input or OS exhaustion — spec.md requires
// both be handled without panicking the caller.
func (h *Heap) allocate(rawSize int64) unsafe.Pointer {
	if rawSize <= 0 {
		return nil
	}

	body := roundUp8(uint64(rawSize))
	if body < minBodySize {
		body = minBodySize
	}
	if body+uint64(H) < body {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	found := h.findFree(body)
	if found.isNil() {
		if err := h.acquireChunk(h.cfg.chunkSizeFor(body)); err != nil {
			return nil
		}
		found = h.findFree(body)
		if found.isNil() {
			return nil
		}
	}

	p, q := found.prev(), found.next()
	unlinkFree(found)

	total := found.size()
	wantSize := body + uint64(H)
	if total-wantSize >= uint64(H+minSplitRemainder) {
		found.setSize(wantSize)
		found.setState(stateAllocated)

		remainder := found.right()
		remainder.setLeftSize(found.size())
		remainder.setSize(total - wantSize)
		remainder.setState(stateUnallocated)

		after := remainder.right()
		after.setLeftSize(remainder.size())

		// A remainder that stays in the catch-all is spliced back into
		// exactly where found used to sit, so first-fit search order over
		// the survivors of the split is undisturbed. A remainder whose own
		// size now falls into a smaller exact class no longer belongs in
		// found's old chain at all; it is pushed to the head of its own
		// class's list instead.
		newClass := classOf(remainder.size()-uint64(H), h.cfg.NumLists)
		if newClass == h.fl.catchAll() {
			insertBetween(p, remainder, q)
		} else {
			pushFront(h.fl.sentinel(newClass), remainder)
		}
	} else {
		found.setState(stateAllocated)
	}

	return found.data()
}

// callocBytes implements my_calloc: allocate n*size bytes, zero them. The
// product is bounds-checked before the multiply so a malicious or buggy
// n*size cannot wrap into a small, under-allocated request.
func (h *Heap) callocBytes(n, size int64) unsafe.Pointer {
	if n <= 0 || size <= 0 {
		return nil
	}
	if n > math.MaxInt64/size {
		return nil
	}
	total := n * size

	p := h.allocate(total)
	if p == nil {
		return nil
	}

	b := dataToHdr(p)
	body := b.size() - uint64(H)
	buf := unsafe.Slice((*byte)(p), int(body))
	for i := range buf {
		buf[i] = 0
	}
	return p
}

// reallocate implements my_realloc. Per the Open Question resolution in
// SPEC_FULL.md §9, it never attempts an in-place grow: it always obtains a
// fresh block and copies min(old body, new size) bytes, matching the
// reference's simplest-correct semantics.
func (h *Heap) reallocate(p unsafe.Pointer, size int64) unsafe.Pointer {
	if p == nil {
		return h.allocate(size)
	}
	if size <= 0 {
		h.deallocate(p)
		return nil
	}

	np := h.allocate(size)
	if np == nil {
		return nil
	}

	h.mu.Lock()
	oldBody := dataToHdr(p).size() - uint64(H)
	h.mu.Unlock()

	n := oldBody
	if uint64(size) < n {
		n = uint64(size)
	}
	if n > 0 {
		src := unsafe.Slice((*byte)(p), int(n))
		dst := unsafe.Slice((*byte)(np), int(n))
		copy(dst, src)
	}

	h.deallocate(p)
	return np
}
