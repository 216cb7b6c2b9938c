package symbol

import (
	"fmt"
	"testing"

	"github.com/modware/mod-runtime/errors"
)

func TestPublishAndLookup(t *testing.T) {
	r := NewRegistry()
	err := r.Publish(1, []Entry{
		{Name: "SEND", Address: 0x1040},
		{Name: "RECV", Address: 0x1080},
		{Name: "STATS", Address: 0x10C0},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	e, ok := r.Lookup("RECV")
	if !ok || e.Address != 0x1080 || e.Owner != 1 {
		t.Errorf("Lookup(RECV) = %+v, %v", e, ok)
	}
	if _, ok := r.Lookup("NOPE"); ok {
		t.Error("Lookup of unknown name should miss, not error")
	}
}

func TestPublishKeepsSortedOrder(t *testing.T) {
	r := NewRegistry()
	for i, name := range []string{"ZETA", "ALPHA", "MU", "BETA"} {
		if err := r.Publish(uint32(i), []Entry{{Name: name, Address: uint32(i)}}); err != nil {
			t.Fatalf("Publish(%s): %v", name, err)
		}
	}
	snap := r.Snapshot()
	for i := 1; i < len(snap); i++ {
		if snap[i-1].Name >= snap[i].Name {
			t.Fatalf("table not sorted: %q before %q", snap[i-1].Name, snap[i].Name)
		}
	}
}

func TestPublishDuplicateAcrossModules(t *testing.T) {
	r := NewRegistry()
	if err := r.Publish(1, []Entry{{Name: "FOO", Address: 0x100}}); err != nil {
		t.Fatalf("first publish: %v", err)
	}

	err := r.Publish(2, []Entry{
		{Name: "UNIQUE", Address: 0x200},
		{Name: "FOO", Address: 0x240},
	})
	if !errors.IsKind(err, errors.KindDuplicateSymbol) {
		t.Fatalf("expected duplicate_symbol, got %v", err)
	}

	// Atomicity: nothing from the failed batch is visible, and the first
	// module's binding is untouched.
	if _, ok := r.Lookup("UNIQUE"); ok {
		t.Error("failed batch leaked an entry")
	}
	e, ok := r.Lookup("FOO")
	if !ok || e.Owner != 1 || e.Address != 0x100 {
		t.Errorf("original FOO disturbed: %+v, %v", e, ok)
	}
}

func TestPublishDuplicateWithinBatch(t *testing.T) {
	r := NewRegistry()
	err := r.Publish(1, []Entry{
		{Name: "FOO", Address: 0x100},
		{Name: "FOO", Address: 0x200},
	})
	if !errors.IsKind(err, errors.KindDuplicateSymbol) {
		t.Fatalf("expected duplicate_symbol, got %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("registry has %d entries after rejected batch", r.Len())
	}
}

func TestRevoke(t *testing.T) {
	r := NewRegistry()
	if err := r.Publish(1, []Entry{{Name: "A", Address: 1}, {Name: "C", Address: 3}}); err != nil {
		t.Fatal(err)
	}
	if err := r.Publish(2, []Entry{{Name: "B", Address: 2}}); err != nil {
		t.Fatal(err)
	}

	if n := r.Revoke(1); n != 2 {
		t.Errorf("Revoke removed %d, want 2", n)
	}
	if _, ok := r.Lookup("A"); ok {
		t.Error("revoked symbol still resolvable")
	}
	if _, ok := r.Lookup("B"); !ok {
		t.Error("unrelated module's symbol lost")
	}
	if n := r.Revoke(1); n != 0 {
		t.Errorf("second Revoke removed %d, want 0", n)
	}
}

func TestLookupManySymbols(t *testing.T) {
	r := NewRegistry()
	var batch []Entry
	for i := 0; i < 100; i++ {
		batch = append(batch, Entry{Name: fmt.Sprintf("SYM%03d", i), Address: uint32(i) * 16})
	}
	if err := r.Publish(7, batch); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("SYM%03d", i)
		e, ok := r.Lookup(name)
		if !ok || e.Address != uint32(i)*16 {
			t.Fatalf("Lookup(%s) = %+v, %v", name, e, ok)
		}
	}
}
