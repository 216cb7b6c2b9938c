package alloc

import (
	"errors"
	"testing"
)

func TestArenaAllocateAligned(t *testing.T) {
	a := NewArena(4096)

	b1, err := a.Allocate(100, 16)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if b1.Base%16 != 0 {
		t.Errorf("base %d not 16-aligned", b1.Base)
	}
	if b1.Size() != 100 {
		t.Errorf("size = %d, want 100", b1.Size())
	}

	b2, err := a.Allocate(64, 64)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if b2.Base%64 != 0 {
		t.Errorf("base %d not 64-aligned", b2.Base)
	}
	if b2.Base < b1.Base+b1.Size() {
		t.Errorf("blocks overlap: %d < %d", b2.Base, b1.Base+b1.Size())
	}
}

func TestArenaExhaustion(t *testing.T) {
	a := NewArena(256)
	if _, err := a.Allocate(512, 1); !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted, got %v", err)
	}
}

func TestArenaBadRequests(t *testing.T) {
	a := NewArena(256)
	if _, err := a.Allocate(0, 16); !errors.Is(err, ErrBadRequest) {
		t.Errorf("zero size: got %v", err)
	}
	if _, err := a.Allocate(16, 3); !errors.Is(err, ErrBadRequest) {
		t.Errorf("non-power-of-two alignment: got %v", err)
	}
}

func TestArenaFreeAndReuse(t *testing.T) {
	a := NewArena(256)
	b, err := a.Allocate(256, 1)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := a.Free(b.Base, b.Size()); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if a.FreeBytes() != 256 {
		t.Errorf("FreeBytes = %d, want 256", a.FreeBytes())
	}
	// The freed space is reusable in full.
	if _, err := a.Allocate(256, 1); err != nil {
		t.Fatalf("reuse after free: %v", err)
	}
}

func TestArenaPartialTailFree(t *testing.T) {
	a := NewArena(1024)
	b, err := a.Allocate(160, 16)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	// Free the trailing 64 bytes; the head stays allocated at the same base.
	if err := a.Free(b.Base+96, 64); err != nil {
		t.Fatalf("tail free: %v", err)
	}
	// Freeing the same tail again must fail, not corrupt.
	if err := a.Free(b.Base+96, 64); !errors.Is(err, ErrBadFree) {
		t.Errorf("double tail free: got %v", err)
	}
	// The head is still allocated.
	if err := a.Free(b.Base, 96); err != nil {
		t.Fatalf("head free: %v", err)
	}
	if a.FreeBytes() != 1024 {
		t.Errorf("FreeBytes = %d, want 1024", a.FreeBytes())
	}
}

func TestArenaCoalescing(t *testing.T) {
	a := NewArena(300)
	b1, _ := a.Allocate(100, 1)
	b2, _ := a.Allocate(100, 1)
	b3, _ := a.Allocate(100, 1)

	// Free out of order; spans must coalesce back into one.
	if err := a.Free(b1.Base, 100); err != nil {
		t.Fatalf("free b1: %v", err)
	}
	if err := a.Free(b3.Base, 100); err != nil {
		t.Fatalf("free b3: %v", err)
	}
	if err := a.Free(b2.Base, 100); err != nil {
		t.Fatalf("free b2: %v", err)
	}
	if _, err := a.Allocate(300, 1); err != nil {
		t.Fatalf("allocate all after coalesce: %v", err)
	}
}

func TestArenaFreeOutsideArena(t *testing.T) {
	a := NewArena(128)
	if err := a.Free(64, 128); !errors.Is(err, ErrBadFree) {
		t.Errorf("free past end: got %v", err)
	}
}

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder(NewArena(256))
	b, err := r.Allocate(64, 16)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if r.Allocs != 1 || r.Frees != 0 {
		t.Errorf("counts = %d/%d, want 1/0", r.Allocs, r.Frees)
	}

	// Failed operations are not counted.
	if _, err := r.Allocate(1024, 1); err == nil {
		t.Fatal("expected exhaustion")
	}
	if err := r.Free(b.Base+1000, 4); err == nil {
		t.Fatal("expected bad free")
	}
	if r.Allocs != 1 || r.Frees != 0 {
		t.Errorf("counts after failures = %d/%d, want 1/0", r.Allocs, r.Frees)
	}

	if err := r.Free(b.Base, b.Size()); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if r.Frees != 1 {
		t.Errorf("Frees = %d, want 1", r.Frees)
	}
}
