// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Deterministic diagnostic dumps of free-list contents (spec.md §4.7,
// §8).

package malloc

import (
	"fmt"
	"io"
	"sort"

	"github.com/cznic/sortutil"
)

// Dump writes a human-readable, deterministic report of every free block
// currently indexed, one line per block, sorted by handle. Two calls
// against the same heap state are required to produce byte-identical
// output — map iteration order is never involved anywhere in the walk, and
// the handles collected per class are explicitly sorted before printing,
// exactly as the teacher package's stableRef test helper sorts block
// handles before comparing them.
func (h *Heap) Dump(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := 0; c < h.cfg.NumLists; c++ {
		handles := make(sortutil.Int64Slice, 0)
		sentinel := h.fl.sentinel(c)
		for cur := sentinel.next(); cur != sentinel; cur = cur.next() {
			handles = append(handles, int64(cur))
		}
		if len(handles) == 0 {
			continue
		}
		sort.Sort(handles)

		label := fmt.Sprintf("class %d", c)
		if c == h.fl.catchAll() {
			label = "catch-all"
		}
		if _, err := fmt.Fprintf(w, "%s:\n", label); err != nil {
			return err
		}
		for _, addr := range handles {
			n := hdr(uintptr(addr))
			if _, err := fmt.Fprintf(w, "  0x%x size=%d left_size=%d\n", addr, n.size(), n.leftSize()); err != nil {
				return err
			}
		}
	}

	return nil
}
