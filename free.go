// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The deallocation algorithm: three-way coalescing and reinsertion
// (spec.md §4.5).

package malloc

import (
	"fmt"
	"unsafe"
)

// deallocate implements my_free. A pointer that is already free (never
// allocated, or already freed) is a double-free condition per spec.md §7
// and is routed to onDoubleFree rather than silently ignored, since
// (unlike an invalid malloc size) there is no safe default here:
// continuing to use memory that may already belong to a new allocation
// would corrupt it. A fencepost address is different: per spec.md §4.5
// step 3 and §6, freeing one is a silent no-op, not a double-free.
func (h *Heap) deallocate(p unsafe.Pointer) {
	if p == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	b := dataToHdr(p)
	switch b.state() {
	case stateAllocated:
	case stateFencepost:
		return
	default:
		onDoubleFree(fmt.Sprintf("malloc: double free of %p", p))
		return
	}

	merged := b
	mergedSize := b.size()
	catchAll := h.fl.catchAll()

	// A coalesced neighbor that sat in the catch-all hands its list
	// position to the merged block; the left neighbor's position wins.
	var keepPrev, keepNext hdr

	if right := b.right(); right.state() == stateUnallocated {
		if classOf(right.size()-H, h.cfg.NumLists) == catchAll {
			keepPrev, keepNext = right.prev(), right.next()
		}
		unlinkFree(right)
		mergedSize += right.size()
	}

	if b.leftSize() != 0 {
		if left := b.left(); left.state() == stateUnallocated {
			if classOf(left.size()-H, h.cfg.NumLists) == catchAll {
				keepPrev, keepNext = left.prev(), left.next()
			}
			unlinkFree(left)
			mergedSize += left.size()
			merged = left
		}
	}

	merged.setSize(mergedSize)
	merged.setState(stateUnallocated)

	right := merged.right()
	right.setLeftSize(mergedSize)

	if keepPrev.isNil() {
		h.pushFree(merged)
	} else {
		insertBetween(keepPrev, merged, keepNext)
	}
}
