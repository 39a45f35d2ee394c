// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package malloc

import "github.com/cznic/mathutil"

// Config carries the reference's compile-time constants as runtime fields,
// so tests can build small heaps that hit edge cases (arena exhaustion,
// catch-all overflow) without megabytes of real allocation.
type Config struct {
	// ArenaSize is the number of bytes requested from the arena for the
	// first OS chunk and for every subsequent growth. Must be a multiple
	// of 8 and large enough to hold two fenceposts plus one free block.
	ArenaSize int64
	// NumLists is the number of segregated free lists, N. Class i in
	// [0, NumLists-2] holds exact body size (i+1)*8; class NumLists-1 is
	// the catch-all, searched first-fit.
	NumLists int
	// MaxOSChunks bounds how many chunks the registry used by Verify's
	// boundary-tag walk can track.
	MaxOSChunks int
	// Reserve is the total virtual address space reserved up front for
	// arena growth. It must be at least ArenaSize and is otherwise
	// independent of it; exhausting it is what produces
	// ErrArenaExhausted.
	Reserve int64
}

// DefaultConfig mirrors spec.md §6's ARENA_SIZE/N_LISTS/MAX_OS_CHUNKS
// constants.
func DefaultConfig() Config {
	return Config{
		ArenaSize:   4096,
		NumLists:    59,
		MaxOSChunks: 12,
		Reserve:     64 << 20,
	}
}

func (c Config) validate() error {
	if c.ArenaSize < int64(3*H+minBodySize) {
		return &InvalidArgumentError{Op: "Config", Detail: "ArenaSize too small to hold two fenceposts and a free block"}
	}
	if c.ArenaSize%8 != 0 {
		return &InvalidArgumentError{Op: "Config", Detail: "ArenaSize must be a multiple of 8"}
	}
	if c.NumLists < 2 {
		return &InvalidArgumentError{Op: "Config", Detail: "NumLists must allow at least one exact class plus the catch-all"}
	}
	if c.MaxOSChunks < 1 {
		return &InvalidArgumentError{Op: "Config", Detail: "MaxOSChunks must be positive"}
	}
	if c.Reserve < c.ArenaSize {
		return &InvalidArgumentError{Op: "Config", Detail: "Reserve must be at least ArenaSize"}
	}
	return nil
}

// chunkSizeFor returns how large a chunk to request when growing to
// satisfy a request for body bytes: the configured default, or enough to
// hold this request plus both fenceposts if that is bigger.
func (c Config) chunkSizeFor(body uint64) int64 {
	return mathutil.MaxInt64(c.ArenaSize, int64(body)+2*int64(H))
}
