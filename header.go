// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Boundary-tag primitives: the in-band header shared by every allocated,
// free and fencepost block.

package malloc

import "unsafe"

// H is the fixed byte length of a block header (ALLOC_HEADER_SIZE). It is a
// compile-time constant, not part of Config: the split/coalesce arithmetic
// and the minimum block size are derived from it.
const H = 16

// blockState is encoded in the low bits of the size word alongside the
// block's size, which is always a multiple of 8 and therefore has those
// bits free.
type blockState uint64

const (
	stateUnallocated blockState = 0
	stateAllocated   blockState = 1
	stateFencepost   blockState = 2
	stateMask        uint64     = 0x7
)

func (s blockState) String() string {
	switch s {
	case stateUnallocated:
		return "unallocated"
	case stateAllocated:
		return "allocated"
	case stateFencepost:
		return "fencepost"
	default:
		return "invalid"
	}
}

// hdr is the address of a block header inside an arena. It is deliberately
// a bare uintptr, not a typed Go pointer: a block's memory lives outside
// the Go heap (see arena.go) and is never subject to garbage collection or
// relocation, so holding its address this way is safe and avoids tripping
// the garbage collector over what looks like an interior pointer into an
// unrelated allocation. The one exception is a free-list sentinel, whose
// hdr addresses the freeList's own Go-allocated array (see freelist.go),
// kept reachable by the Heap that owns it.
type hdr uintptr

// the zero hdr never denotes a real block; it is used as a "no block" value
// (e.g. an empty find-free result).
const nilHdr hdr = 0

func loadWord(addr uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(addr))
}

func storeWord(addr uintptr, v uint64) {
	*(*uint64)(unsafe.Pointer(addr)) = v
}

func (h hdr) sizeWord() uint64 { return loadWord(uintptr(h)) }

// size returns the total block size in bytes, header included.
func (h hdr) size() uint64 { return h.sizeWord() &^ stateMask }

func (h hdr) state() blockState { return blockState(h.sizeWord() & stateMask) }

func (h hdr) setSize(sz uint64) {
	storeWord(uintptr(h), (sz &^ stateMask) | uint64(h.state()))
}

func (h hdr) setState(s blockState) {
	storeWord(uintptr(h), h.size()|uint64(s))
}

// leftSize mirrors the size of the immediately preceding block, enabling
// O(1) left-neighbor navigation (invariant 1 in the data model).
func (h hdr) leftSize() uint64 { return loadWord(uintptr(h) + 8) }

func (h hdr) setLeftSize(sz uint64) { storeWord(uintptr(h)+8, sz) }

// next and prev overlay the body of the block and are meaningful only while
// state() == stateUnallocated; they also double as the two link words of a
// free-list sentinel, which has no size/state of its own that anyone reads.
func (h hdr) next() hdr { return hdr(loadWord(uintptr(h) + H)) }

func (h hdr) setNext(n hdr) { storeWord(uintptr(h)+H, uint64(n)) }

func (h hdr) prev() hdr { return hdr(loadWord(uintptr(h) + H + 8)) }

func (h hdr) setPrev(p hdr) { storeWord(uintptr(h)+H+8, uint64(p)) }

// data returns the pointer handed to callers of Malloc/Calloc/Realloc.
func (h hdr) data() unsafe.Pointer { return unsafe.Pointer(uintptr(h) + H) }

// dataToHdr recovers a block header from a pointer previously returned by
// data(); it is the inverse used by Free/Realloc to get back from a
// caller's pointer to ptr - H.
func dataToHdr(p unsafe.Pointer) hdr { return hdr(uintptr(p) - H) }

// right returns the block immediately to the right: B + B.size. Valid
// unless h is the rightmost fencepost of its chunk.
func (h hdr) right() hdr { return hdr(uintptr(h) + uintptr(h.size())) }

// left returns the block immediately to the left: B - B.left_size. Valid
// unless h is the leftmost fencepost of its chunk.
func (h hdr) left() hdr { return hdr(uintptr(h) - uintptr(h.leftSize())) }

func (h hdr) isNil() bool { return h == nilHdr }
