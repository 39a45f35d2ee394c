// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The segregated free-list index: one circular doubly linked list per
// exact size class, plus a catch-all class for everything above the
// largest exact class.

package malloc

import "unsafe"

// freeList owns the N sentinel nodes. Their backing array is allocated once
// in newFreeList, held by the freeList value, and never reallocated or
// moved once a Heap exists, exactly as the reference keeps a file-scope
// array of sentinel headers.
type freeList struct {
	n         int
	sentinels [][32]byte // backing storage for next/prev link words only
}

func newFreeList(n int) *freeList {
	fl := &freeList{n: n, sentinels: make([][32]byte, n)}
	for i := 0; i < n; i++ {
		s := fl.sentinel(i)
		s.setNext(s)
		s.setPrev(s)
	}
	return fl
}

// sentinel returns the head node of list i. Only its next/prev words are
// ever read or written; the sentinel never appears as a "size()" or
// "state()" in any algorithm above this file.
func (fl *freeList) sentinel(i int) hdr {
	return hdr(uintptr(unsafe.Pointer(&fl.sentinels[i][0])))
}

func (fl *freeList) catchAll() int { return fl.n - 1 }

// classOf returns the exact-fit class for a given body size (block size
// minus H), or the catch-all class if the body is too large for any exact
// class. The reference computes this residue class inconsistently between
// its two call sites (sizeof(header*) in one, 8 in the other); this
// implementation standardizes on 8, the allocator's alignment quantum, per
// the Open Question resolution in SPEC_FULL.md §9.
func classOf(bodySize uint64, nLists int) int {
	c := int(bodySize/8) - 1
	if c < 0 {
		c = 0
	}
	if c > nLists-1 {
		c = nLists - 1
	}
	return c
}

// unlinkFree removes n from whatever circular list currently holds it, using
// only n's own prev/next — the caller need not know n's list index. This
// relies on every list, including the catch-all, being a true circular
// doubly linked list with a sentinel.
func unlinkFree(n hdr) {
	p, nx := n.prev(), n.next()
	p.setNext(nx)
	nx.setPrev(p)
}

// pushFront inserts n as the first real node after sentinel.
func pushFront(sentinel, n hdr) {
	nx := sentinel.next()
	n.setNext(nx)
	n.setPrev(sentinel)
	nx.setPrev(n)
	sentinel.setNext(n)
}

// insertBetween splices n between the given (already linked) p and q nodes,
// used to restore a block to its exact former position in the catch-all
// list — required so that first-fit search order over survivors of a
// split or coalesce is not disturbed (see allocate/deallocate position
// preservation rules).
func insertBetween(p, n, q hdr) {
	n.setPrev(p)
	n.setNext(q)
	p.setNext(n)
	q.setPrev(n)
}

func (fl *freeList) empty(i int) bool {
	s := fl.sentinel(i)
	return s.next() == s
}
