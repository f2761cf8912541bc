package intern

import "testing"

func TestInternIsIdempotent(t *testing.T) {
	tbl := New()
	a := tbl.Intern("hello")
	b := tbl.Intern("hello")
	if a != b {
		t.Fatalf("expected interning the same string twice to return the same Symbol, got %d and %d", a, b)
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected exactly one distinct string, got %d", tbl.Len())
	}
}

func TestInternDistinctStringsGetDistinctSymbols(t *testing.T) {
	tbl := New()
	a := tbl.Intern("foo")
	b := tbl.Intern("bar")
	if a == b {
		t.Fatalf("expected distinct strings to get distinct symbols")
	}
}

func TestLookupRoundTrips(t *testing.T) {
	tbl := New()
	sym := tbl.Intern("round-trip")
	if got := tbl.Lookup(sym); got != "round-trip" {
		t.Fatalf("expected Lookup to return the original string, got %q", got)
	}
}

func TestCanonicalSharesBackingString(t *testing.T) {
	tbl := New()
	a := tbl.Canonical("shared")
	b := tbl.Canonical("shared")
	if a != b {
		t.Fatalf("expected canonical forms to compare equal, got %q and %q", a, b)
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected one interned entry, got %d", tbl.Len())
	}
}

func TestEmptyStringIsAValidSymbol(t *testing.T) {
	tbl := New()
	sym := tbl.Intern("")
	if got := tbl.Lookup(sym); got != "" {
		t.Fatalf("expected empty string to round-trip, got %q", got)
	}
}
