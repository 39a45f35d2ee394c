// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import (
	"flag"
	"math/rand"
	"testing"
	"unsafe"
)

var testN = flag.Int("N", 256, "number of ops in the randomized allocator stress test")

func TestPackageLevelRoundTrip(t *testing.T) {
	p := Malloc(64)
	if p == nil {
		t.Fatal("Malloc(64) = nil")
	}
	buf := unsafe.Slice((*byte)(p), 64)
	for i := range buf {
		buf[i] = byte(i)
	}
	Free(p)

	if !Verify() {
		t.Fatal("Verify() = false after a clean Malloc/Free round trip")
	}
}

func TestPackageLevelCallocAndRealloc(t *testing.T) {
	p := Calloc(10, 4)
	if p == nil {
		t.Fatal("Calloc(10, 4) = nil")
	}

	p = Realloc(p, 80)
	if p == nil {
		t.Fatal("Realloc grow = nil")
	}
	Free(p)
}

func TestArenaExhaustionReturnsNilNotPanic(t *testing.T) {
	cfg := Config{ArenaSize: 64, NumLists: 4, MaxOSChunks: 1, Reserve: 64}
	h, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	var last unsafe.Pointer
	for i := 0; i < 100; i++ {
		last = h.allocate(16)
		if last == nil {
			break
		}
	}
	if last != nil {
		t.Fatal("expected allocation to eventually fail against an exhausted 1-chunk reservation")
	}
}

// TestAllocatorRandomized drives allocate/deallocate through random-sized
// requests and checks the heap stays structurally valid throughout, mirroring
// the corpus's seeded-random allocator stress harness.
func TestAllocatorRandomized(t *testing.T) {
	cfg := Config{ArenaSize: 4096, NumLists: 59, MaxOSChunks: 64, Reserve: 16 << 20}
	h, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	rng := rand.New(rand.NewSource(42))
	live := map[unsafe.Pointer]int{}

	for i := 0; i < *testN; i++ {
		if len(live) > 0 && rng.Intn(2) == 0 {
			for p, sz := range live {
				buf := unsafe.Slice((*byte)(p), sz)
				for _, b := range buf {
					if b != byte(sz) {
						t.Fatalf("live block at %p corrupted: got %d, want %d", p, b, byte(sz))
					}
				}
				h.deallocate(p)
				delete(live, p)
				break
			}
			continue
		}

		sz := 8 + rng.Intn(512)
		p := h.allocate(int64(sz))
		if p == nil {
			continue
		}
		buf := unsafe.Slice((*byte)(p), sz)
		for j := range buf {
			buf[j] = byte(sz)
		}
		live[p] = sz

		if i%32 == 0 {
			if err := h.verify(); err != nil {
				t.Fatalf("verify() at op %d: %v", i, err)
			}
		}
	}

	if err := h.verify(); err != nil {
		t.Fatalf("verify() at end of randomized run: %v", err)
	}
}
