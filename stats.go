// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

// AllocStats reports a snapshot of a Heap's block accounting. It is the
// allocator-side analogue of the teacher package's AllocStats, repurposed
// from post-decompression byte counting (not applicable here — there is no
// compression feature in this domain) to live/free/chunk accounting.
type AllocStats struct {
	// TotalBytes is every byte committed from the arena, headers and
	// fenceposts included.
	TotalBytes int64
	// AllocatedBytes is the sum of allocated blocks' body sizes (what
	// callers actually requested use of, header excluded).
	AllocatedBytes int64
	// FreeBytes is the sum of free blocks' body sizes.
	FreeBytes int64
	// Chunks is the number of independently registered OS chunks: growths
	// that landed adjacent to the previous chunk are merged away rather
	// than registered (spec.md §3), so this is almost always 1.
	Chunks int
}

// Stats walks the whole arena once and reports the current totals.
func (h *Heap) Stats() AllocStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := AllocStats{Chunks: len(h.chunks)}
	if len(h.chunks) == 0 {
		return st
	}

	cur := h.chunks[0]
	for {
		st.TotalBytes += int64(cur.size())
		switch cur.state() {
		case stateAllocated:
			st.AllocatedBytes += int64(cur.size() - H)
		case stateUnallocated:
			st.FreeBytes += int64(cur.size() - H)
		}

		if cur == h.lastFencePost {
			break
		}
		cur = cur.right()
	}

	return st
}
