package vector

import "testing"

func TestBatches(t *testing.T) {
	vs := make([]Vector, 250)
	got := Batches(vs, MaxBatch)
	if len(got) != 3 {
		t.Fatalf("batches: want=3 got=%d", len(got))
	}
	if len(got[0]) != 100 || len(got[1]) != 100 || len(got[2]) != 50 {
		t.Fatalf("sizes: %d %d %d", len(got[0]), len(got[1]), len(got[2]))
	}
	if len(Batches(nil, 10)) != 0 {
		t.Fatalf("empty input should produce no batches")
	}
}
