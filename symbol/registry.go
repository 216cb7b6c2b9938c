package symbol

import (
	"sort"
	"sync"

	"github.com/modware/mod-runtime/errors"
)

// Entry is one published symbol: a name bound to an absolute address inside
// its owning module's block.
type Entry struct {
	Name    string
	Address uint32
	Flags   uint16
	Owner   uint32 // owning module identifier
}

// Registry is the global, sorted, binary-searchable symbol table.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry // sorted by Name, unique
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Publish inserts a batch of symbols owned by one module. The batch is
// all-or-nothing: if any name already exists in the table, or appears twice
// within the batch, nothing is inserted and the offending symbol is named in
// the returned error.
func (r *Registry) Publish(owner uint32, batch []Entry) error {
	if len(batch) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(batch))
	for i := range batch {
		name := batch[i].Name
		if name == "" {
			return errors.New(errors.PhasePublish, errors.KindBadSymbolName).
				Detail("batch entry %d has an empty name", i).Build()
		}
		if _, dup := seen[name]; dup {
			return errors.DuplicateSymbol(name, owner)
		}
		seen[name] = struct{}{}
		if j, ok := r.search(name); ok {
			return errors.DuplicateSymbol(name, r.entries[j].Owner)
		}
	}

	for i := range batch {
		e := batch[i]
		e.Owner = owner
		j, _ := r.search(e.Name)
		r.entries = append(r.entries, Entry{})
		copy(r.entries[j+1:], r.entries[j:])
		r.entries[j] = e
	}
	return nil
}

// Lookup resolves a name to its entry. The second result is false when the
// name is not published; an unresolved symbol is not an error.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i, ok := r.search(name); ok {
		return r.entries[i], true
	}
	return Entry{}, false
}

// Revoke removes every entry owned by the given module and returns how many
// were removed. Unload is not a hot path; this is a single linear compaction.
func (r *Registry) Revoke(owner uint32) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.Owner != owner {
			kept = append(kept, e)
		}
	}
	removed := len(r.entries) - len(kept)
	r.entries = kept
	return removed
}

// Len returns the number of published symbols.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns a copy of the table in sorted order, for diagnostics.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// search returns the index of name, or the insertion point and false.
// Callers must hold at least the read lock.
func (r *Registry) search(name string) (int, bool) {
	i := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].Name >= name
	})
	if i < len(r.entries) && r.entries[i].Name == name {
		return i, true
	}
	return i, false
}
