package core

import "testing"

func TestRectAddAndUnion(t *testing.T) {
	var r Rect
	if !r.Empty() {
		t.Fatal("zero rect must be empty")
	}
	r = r.Add(3, 4)
	if r != (Rect{MinX: 3, MinY: 4, MaxX: 4, MaxY: 5}) {
		t.Fatalf("unexpected rect after first add: %+v", r)
	}
	r = r.Add(1, 7)
	if r.Dx() != 3 || r.Dy() != 4 {
		t.Fatalf("expected 3x4 after second add, got %dx%d", r.Dx(), r.Dy())
	}
	u := r.Union(Rect{})
	if u != r {
		t.Fatal("union with empty rect must be identity")
	}
	u = Rect{}.Union(r)
	if u != r {
		t.Fatal("union of empty with rect must be the rect")
	}
}

func TestRectExpandClip(t *testing.T) {
	r := RectXYWH(0, 0, 2, 2).Expand(3, 1)
	want := Rect{MinX: -3, MinY: -1, MaxX: 5, MaxY: 3}
	if r != want {
		t.Fatalf("Expand = %+v, want %+v", r, want)
	}
	c := r.Clip(RectXYWH(0, 0, 64, 64))
	if c != (Rect{MinX: 0, MinY: 0, MaxX: 5, MaxY: 3}) {
		t.Fatalf("Clip = %+v", c)
	}
	if !RectXYWH(10, 10, 2, 2).Clip(RectXYWH(0, 0, 4, 4)).Empty() {
		t.Fatal("disjoint clip must be empty")
	}
	if !(Rect{}).Expand(2, 2).Empty() {
		t.Fatal("expanding an empty rect must stay empty")
	}
}
