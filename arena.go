// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// OS chunk acquisition: a monotone, contiguous memory arena standing in
// for the reference's sbrk(2), plus fencepost installation.

package malloc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// arena reserves a large span of virtual address space once, up front,
// and commits it page by page as chunks are requested. Reservation costs
// no physical memory (PROT_NONE, never touched); committing is the
// portable analogue of sbrk's monotone break advance, and — critically —
// guarantees growth is contiguous, so the chunk-adjacency coalescing path
// in heap.go is exercised on every chunk after the first, exactly as it
// is against a real sbrk heap.
type arena struct {
	base      uintptr
	reserve   uintptr
	committed uintptr
	raw       []byte // keeps the mmap'd region reachable for Munmap on Close
}

func newArena(reserve int64) (*arena, error) {
	if reserve <= 0 {
		return nil, &InvalidArgumentError{Op: "newArena", Detail: "reserve must be positive"}
	}

	data, err := unix.Mmap(-1, 0, int(reserve), unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("malloc: reserve %d byte arena: %w", reserve, err)
	}

	return &arena{
		base:    uintptr(unsafe.Pointer(&data[0])),
		reserve: uintptr(reserve),
		raw:     data,
	}, nil
}

// grow commits size more bytes immediately after whatever was committed
// before and returns the base address of the new region. It fails once the
// reservation is exhausted — the concrete form of "OS refusal to extend
// the heap" from spec.md §7.
func (a *arena) grow(size uintptr) (uintptr, error) {
	if size == 0 || a.committed+size > a.reserve {
		return 0, ErrArenaExhausted
	}

	base := a.base + a.committed
	// mprotect needs a page-aligned start, so the range begins at the page
	// holding base; a.base is page-aligned, so start stays in the reservation.
	start := base &^ (uintptr(unix.Getpagesize()) - 1)
	page := unsafe.Slice((*byte)(unsafe.Pointer(start)), int(base+size-start))
	if err := unix.Mprotect(page, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return 0, fmt.Errorf("malloc: commit %d arena bytes: %w", size, err)
	}

	a.committed += size
	return base, nil
}

// release unmaps the whole reservation. It is never called on the process
// allocator (chunks are never returned to the OS, per spec.md's Non-goals)
// but lets tests that build many short-lived Heaps avoid exhausting
// address space.
func (a *arena) release() error {
	if a.raw == nil {
		return nil
	}

	err := unix.Munmap(a.raw)
	a.raw = nil
	return err
}
