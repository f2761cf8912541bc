// Package intern implements the process-local string interner:
// a write-once table mapping byte strings to stable handles so that every
// later pipeline stage can compare identifiers in O(1) instead of comparing
// byte strings.
package intern

import "sync"

// Symbol is a stable handle for an interned string: its index in the table,
// in order of first insertion. The zero Symbol is valid once anything has
// been interned; it names the first string inserted, whatever it was.
type Symbol uint32

// Table is the interner itself. It is append-only: entries are never
// removed, so a Symbol remains valid and stable for the lifetime of the
// Table.
type Table struct {
	mu      sync.Mutex
	strings []string
	ids     map[string]Symbol
}

// New creates an empty interner.
func New() *Table {
	return &Table{ids: make(map[string]Symbol)}
}

// Intern returns the stable Symbol for s, inserting it if this is the first
// occurrence. Insertion is idempotent: interning the same bytes twice
// returns the same Symbol both times.
func (t *Table) Intern(s string) Symbol {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := Symbol(len(t.strings))
	t.strings = append(t.strings, s)
	t.ids[s] = id
	return id
}

// Lookup returns the string a Symbol was interned from. Panics on an
// out-of-range Symbol, which indicates a bug in the caller (a Symbol never
// legitimately outlives its Table).
func (t *Table) Lookup(sym Symbol) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.strings[sym]
}

// Len reports how many distinct strings have been interned so far.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.strings)
}

// Canonical interns s and returns the table's own copy of it, so that two
// equal lexemes scanned from different points in the source end up sharing
// one backing array. Later stages still compare these as plain Go strings;
// Canonical only removes the duplicate allocations, it doesn't change the
// comparison the later stage performs.
func (t *Table) Canonical(s string) string {
	return t.Lookup(t.Intern(s))
}
