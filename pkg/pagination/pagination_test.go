package pagination

import "testing"

func TestNormalizeLimit(t *testing.T) {
	t.Parallel()

	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, got)
	}
	if got := NormalizeLimit(-5); got != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, got)
	}
	if got := NormalizeLimit(200); got != MaxLimit {
		t.Fatalf("expected max limit %d, got %d", MaxLimit, got)
	}
	if got := NormalizeLimit(2); got != 2 {
		t.Fatalf("expected limit 2, got %d", got)
	}
}

func TestNormalizeOffset(t *testing.T) {
	t.Parallel()

	if got := NormalizeOffset(-1); got != 0 {
		t.Fatalf("expected offset 0, got %d", got)
	}
	if got := NormalizeOffset(7); got != 7 {
		t.Fatalf("expected offset 7, got %d", got)
	}
}

func TestNextOffset(t *testing.T) {
	t.Parallel()

	p := Params{Limit: 3, Offset: 1}
	if got := NextOffset(p, 3); got != 4 {
		t.Fatalf("expected next offset 4, got %d", got)
	}
	if got := NextOffset(Params{Offset: -2}, -1); got != 0 {
		t.Fatalf("expected next offset 0, got %d", got)
	}
}
