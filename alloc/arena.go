package alloc

import (
	"errors"
	"fmt"
	"sort"
)

// Arena allocation errors.
var (
	ErrExhausted  = errors.New("alloc: arena exhausted")
	ErrBadRequest = errors.New("alloc: bad allocation request")
	ErrBadFree    = errors.New("alloc: range is not allocated")
)

// DefaultArenaSize is one megabyte, the whole conventional address space of
// the environment this loader is modeled on.
const DefaultArenaSize = 1 << 20

// Arena is a first-fit allocator over a single contiguous backing store.
// The zero value is not usable; use NewArena.
type Arena struct {
	backing []byte
	free    []span // sorted by start, non-adjacent, non-overlapping
}

type span struct {
	start, end uint32 // [start, end)
}

// NewArena creates an arena with the given backing size in bytes.
func NewArena(size uint32) *Arena {
	if size == 0 {
		size = DefaultArenaSize
	}
	return &Arena{
		backing: make([]byte, size),
		free:    []span{{0, size}},
	}
}

// Allocate returns an aligned block of exactly size bytes, first-fit.
func (a *Arena) Allocate(size, align uint32) (Block, error) {
	if size == 0 {
		return Block{}, fmt.Errorf("%w: zero size", ErrBadRequest)
	}
	if align == 0 || align&(align-1) != 0 {
		return Block{}, fmt.Errorf("%w: alignment %d is not a power of two", ErrBadRequest, align)
	}

	for i, s := range a.free {
		start := (s.start + align - 1) &^ (align - 1)
		if start < s.start || start+size < start { // overflow
			continue
		}
		if start+size > s.end {
			continue
		}

		a.carve(i, start, start+size)
		return Block{Base: start, Data: a.backing[start : start+size : start+size]}, nil
	}
	return Block{}, ErrExhausted
}

// carve removes [start, end) from free span i, keeping any remainders.
func (a *Arena) carve(i int, start, end uint32) {
	s := a.free[i]
	var repl []span
	if start > s.start {
		repl = append(repl, span{s.start, start})
	}
	if end < s.end {
		repl = append(repl, span{end, s.end})
	}
	a.free = append(a.free[:i], append(repl, a.free[i+1:]...)...)
}

// Free returns [base, base+size) to the arena. The range must be currently
// allocated; freeing memory that is already free is an error, which is what
// turns a double discard into a detectable fault instead of corruption.
func (a *Arena) Free(base, size uint32) error {
	if size == 0 {
		return fmt.Errorf("%w: zero size", ErrBadRequest)
	}
	end := base + size
	if end < base || end > uint32(len(a.backing)) {
		return fmt.Errorf("%w: [%d, %d) outside arena", ErrBadFree, base, end)
	}
	for _, s := range a.free {
		if base < s.end && s.start < end {
			return fmt.Errorf("%w: [%d, %d) intersects free range [%d, %d)", ErrBadFree, base, end, s.start, s.end)
		}
	}

	a.free = append(a.free, span{base, end})
	sort.Slice(a.free, func(i, j int) bool { return a.free[i].start < a.free[j].start })
	a.coalesce()
	return nil
}

func (a *Arena) coalesce() {
	out := a.free[:1]
	for _, s := range a.free[1:] {
		last := &out[len(out)-1]
		if s.start == last.end {
			last.end = s.end
		} else {
			out = append(out, s)
		}
	}
	a.free = out
}

// Bytes returns the backing store for [base, base+size).
func (a *Arena) Bytes(base, size uint32) []byte {
	return a.backing[base : base+size : base+size]
}

// FreeBytes reports the total number of free bytes, for diagnostics.
func (a *Arena) FreeBytes() uint32 {
	var n uint32
	for _, s := range a.free {
		n += s.end - s.start
	}
	return n
}
