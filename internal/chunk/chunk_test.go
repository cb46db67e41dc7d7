package chunk

import (
	"errors"
	"testing"

	"sandfall/internal/core"
)

func TestKeyOfFloorsNegativeCoordinates(t *testing.T) {
	cases := []struct {
		x, y int
		want Key
		lx   int
	}{
		{0, 0, Key{0, 0}, 0},
		{63, 0, Key{0, 0}, 63},
		{64, 5, Key{1, 0}, 0},
		{-1, -1, Key{-1, -1}, 63},
		{-64, 0, Key{-1, 0}, 0},
		{-65, 0, Key{-2, 0}, 63},
	}
	for _, tc := range cases {
		if got := KeyOf(tc.x, tc.y); got != tc.want {
			t.Fatalf("KeyOf(%d,%d) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
		if lx, _ := Local(tc.x, tc.y); lx != tc.lx {
			t.Fatalf("Local(%d) = %d, want %d", tc.x, lx, tc.lx)
		}
		ox, _ := tc.want.Origin()
		lx, _ := Local(tc.x, tc.y)
		if ox+lx != tc.x {
			t.Fatalf("origin %d + local %d != %d", ox, lx, tc.x)
		}
	}
}

func TestDirtyRotation(t *testing.T) {
	c := New(Key{}, 20)
	if c.Dirty() != Bounds {
		t.Fatalf("new chunk should be fully dirty, got %v", c.Dirty())
	}
	c.BeginTick()
	c.BeginTick()
	if !c.Idle() {
		t.Fatalf("two quiet ticks should leave the chunk idle")
	}
	gen := c.Gen()
	c.MarkPoint(10, 20)
	if c.Gen() == gen {
		t.Fatalf("growing the dirty region must bump the generation")
	}
	c.MarkPoint(10, 20)
	if w := c.Work(2, 1); w != (core.Rect{MinX: 8, MinY: 19, MaxX: 13, MaxY: 22}) {
		t.Fatalf("unexpected work rect %v", w)
	}
	c.BeginTick()
	if c.Prev() != (core.Rect{MinX: 10, MinY: 20, MaxX: 11, MaxY: 21}) || !c.Dirty().Empty() {
		t.Fatalf("rotation wrong: prev=%v dirty=%v", c.Prev(), c.Dirty())
	}
	if w := c.Work(100, 100); w != Bounds {
		t.Fatalf("work rect must be clipped to the chunk, got %v", w)
	}
}

func TestBeginTickClearsOnlyTickFlags(t *testing.T) {
	c := New(Key{}, 20)
	c.Set(1, 1, Pixel{Mat: 3, Flags: Moved | Visited | Loose})
	c.BeginTick()
	if got := c.At(1, 1).Flags; got != Loose {
		t.Fatalf("expected only Loose to survive, got %b", got)
	}
}

func TestCoarseIndexing(t *testing.T) {
	c := New(Key{}, 0)
	c.AddTemp(9, 17, 5)
	if got := c.Temp(15, 23); got != 5 {
		t.Fatalf("pixels in the same 8x8 block share a cell, got %v", got)
	}
	if got := c.Temps()[2*Coarse+1]; got != 5 {
		t.Fatalf("cell (1,2) should hold the heat, got %v", got)
	}
	c.NextTemps()[0] = 7
	c.SwapTemps()
	if c.Temp(0, 0) != 7 {
		t.Fatalf("swap should make the next buffer current")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	c := New(Key{X: -3, Y: 7}, 20)
	c.BeginTick()
	c.BeginTick()
	c.Set(5, 6, Pixel{Mat: 2, Flags: Loose | Moved})
	c.Set(63, 63, Pixel{Mat: 9, Flags: Burning})
	c.SetTemp(3, 4, 812.5)
	c.MarkPoint(5, 6)

	data, err := c.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var d Chunk
	if err := d.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Key != c.Key {
		t.Fatalf("key mismatch: %v vs %v", d.Key, c.Key)
	}
	if got := d.At(5, 6); got != (Pixel{Mat: 2, Flags: Loose}) {
		t.Fatalf("tick flags must not be persisted, got %+v", got)
	}
	if got := d.At(63, 63); got != (Pixel{Mat: 9, Flags: Burning}) {
		t.Fatalf("corner pixel mismatch: %+v", got)
	}
	if d.Temps()[4*Coarse+3] != 812.5 {
		t.Fatalf("temperature mismatch")
	}
	if d.Dirty() != (core.Rect{MinX: 5, MinY: 6, MaxX: 6, MaxY: 7}) {
		t.Fatalf("dirty region mismatch: %v", d.Dirty())
	}
}

func TestCodecKeepsPreviousTickRegion(t *testing.T) {
	c := New(Key{}, 20)
	c.BeginTick()
	c.BeginTick()
	c.MarkPoint(1, 2)
	c.BeginTick()
	c.MarkPoint(40, 41)

	data, err := c.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var d Chunk
	if err := d.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := core.Rect{MinX: 1, MinY: 2, MaxX: 41, MaxY: 42}
	if d.Dirty() != want {
		t.Fatalf("persisted region should cover both ticks, got %v want %v", d.Dirty(), want)
	}
}

func TestCorruptDataLeavesChunkUntouched(t *testing.T) {
	src := New(Key{X: 1}, 20)
	src.Fill(4)
	data, _ := src.MarshalBinary()

	dst := New(Key{X: 9}, 55)
	before := dst.Clone()

	flipped := append([]byte(nil), data...)
	flipped[100] ^= 0xff
	for _, bad := range [][]byte{nil, data[:len(data)-1], flipped} {
		if err := dst.UnmarshalBinary(bad); !errors.Is(err, ErrCorrupt) {
			t.Fatalf("expected ErrCorrupt, got %v", err)
		}
		if dst.Key != before.Key || dst.At(0, 0) != before.At(0, 0) || dst.Temp(0, 0) != before.Temp(0, 0) {
			t.Fatalf("failed decode modified the chunk")
		}
	}
}
