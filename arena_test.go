// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"testing"
	"unsafe"
)

func TestArenaGrowContiguous(t *testing.T) {
	a, err := newArena(1 << 20)
	if err != nil {
		t.Fatalf("newArena: %v", err)
	}
	defer a.release()

	b1, err := a.grow(4096)
	if err != nil {
		t.Fatalf("grow 1: %v", err)
	}
	b2, err := a.grow(4096)
	if err != nil {
		t.Fatalf("grow 2: %v", err)
	}
	if b2 != b1+4096 {
		t.Fatalf("grow not contiguous: b1=%#x b2=%#x", b1, b2)
	}

	// Committed memory must actually be readable/writable.
	p := (*byte)(unsafe.Pointer(b1))
	*p = 0x42
	if *p != 0x42 {
		t.Fatal("committed arena byte did not round-trip")
	}
}

func TestArenaExhaustion(t *testing.T) {
	a, err := newArena(4096)
	if err != nil {
		t.Fatalf("newArena: %v", err)
	}
	defer a.release()

	if _, err := a.grow(2048); err != nil {
		t.Fatalf("grow within reservation: %v", err)
	}
	if _, err := a.grow(4096); err == nil {
		t.Fatal("grow beyond reservation: expected error, got nil")
	}
}

func TestNewArenaRejectsNonPositive(t *testing.T) {
	if _, err := newArena(0); err == nil {
		t.Fatal("newArena(0): expected error, got nil")
	}
}
