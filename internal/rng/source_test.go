package rng

import "testing"

func TestSeededSourcesAgree(t *testing.T) {
	a := New(7)
	b := New(7)
	for i := 0; i < 32; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("unexpected divergence at %d: got=%f want=%f", i, x, y)
		}
	}
}

func TestUniformAndIntRangeBounds(t *testing.T) {
	src := New(1)
	for i := 0; i < 1000; i++ {
		if v := Uniform(src, -10, 10); v < -10 || v >= 10 {
			t.Fatalf("uniform out of range: %f", v)
		}
		if v := IntRange(src, 3, 9); v < 3 || v >= 9 {
			t.Fatalf("int range out of range: %d", v)
		}
	}
}
