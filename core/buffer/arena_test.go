package buffer

import "testing"

func TestArenaPoolReuse(t *testing.T) {
	p := NewArenaPool(4096)
	a := p.Get(0, 0)
	if len(a.Bytes()) != 4096 {
		t.Fatalf("arena size = %d, want 4096", len(a.Bytes()))
	}
	a.Release()

	stats := p.Stats()
	if stats.TotalAlloc != 1 || stats.TotalFree != 1 {
		t.Fatalf("stats = %+v, want 1 alloc / 1 free", stats)
	}

	b := p.Get(0, 0)
	if stats := p.Stats(); stats.TotalAlloc != 1 {
		t.Fatalf("expected reuse from free list, got alloc=%d", stats.TotalAlloc)
	}
	b.Release()
}
