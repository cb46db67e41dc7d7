package world

import (
	"errors"
	"testing"

	"sandfall/internal/chunk"
	"sandfall/internal/core"
	"sandfall/internal/material"
)

type failingStore struct {
	*MemoryStore
	loadErr, saveErr error
}

func (s failingStore) Load(k chunk.Key) (*chunk.Chunk, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.MemoryStore.Load(k)
}

func (s failingStore) Save(c *chunk.Chunk) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStore.Save(c)
}

func newTestGrid(t *testing.T, cfg Config) (*Grid, *material.Catalog) {
	t.Helper()
	cat, _ := material.Default()
	cfg.Catalog = cat
	return New(cfg), cat
}

func TestTiersFollowPointsOfInterest(t *testing.T) {
	store := NewMemoryStore()
	g, _ := newTestGrid(t, Config{Store: store, ActiveRadius: 1, LoadMargin: 1, Ambient: 20})

	g.SetPointsOfInterest([]core.Point{{X: 10, Y: 10}})
	if err := g.UpdateTiers(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if a, l := g.Counts(); a != 9 || l != 0 {
		t.Fatalf("expected 9 active and 0 loaded, got %d/%d", a, l)
	}
	if g.Tier(chunk.Key{X: -1, Y: -1}) != Active || g.Tier(chunk.Key{X: 2, Y: 0}) != Unloaded {
		t.Fatalf("unexpected tiers around the origin")
	}
	keys := g.ActiveKeys()
	for i := 1; i < len(keys); i++ {
		if !keys[i-1].Less(keys[i]) {
			t.Fatalf("active keys not sorted: %v", keys)
		}
	}

	g.Set(5, 5, 3)
	g.SetPointsOfInterest([]core.Point{{X: 64*2 + 1, Y: 1}})
	if err := g.UpdateTiers(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if g.Tier(chunk.Key{X: 0, Y: 0}) != Loaded {
		t.Fatalf("chunk inside the margin should be loaded, got %v", g.Tier(chunk.Key{}))
	}
	if g.Tier(chunk.Key{X: -1, Y: 0}) != Unloaded || store.Len() == 0 {
		t.Fatalf("chunks beyond the margin should be evicted to the store")
	}
	if _, ok := g.Get(5, 5); ok {
		t.Fatalf("loaded chunks must not answer pixel queries")
	}
	if !g.IsSolid(5, 5) {
		t.Fatalf("inactive cells are solid")
	}

	g.SetPointsOfInterest([]core.Point{{X: 5, Y: 5}})
	if err := g.UpdateTiers(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if id, ok := g.Get(5, 5); !ok || id != 3 {
		t.Fatalf("pixel lost across tier changes: %d ok=%v", id, ok)
	}
}

func TestEvictedChunkReloadsFromStore(t *testing.T) {
	store := NewMemoryStore()
	g, cat := newTestGrid(t, Config{Store: store})
	if _, err := g.Activate(chunk.Key{X: -2, Y: 3}); err != nil {
		t.Fatalf("activate: %v", err)
	}
	sand := cat.MustID(material.NameSand)
	g.Set(-100, 200, sand)
	g.Deactivate(chunk.Key{X: -2, Y: 3})
	if err := g.UpdateTiers(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if g.Chunk(chunk.Key{X: -2, Y: 3}) != nil {
		t.Fatalf("unpinned chunk with no points of interest should be evicted")
	}
	if _, err := g.Activate(chunk.Key{X: -2, Y: 3}); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if id, _ := g.Get(-100, 200); id != sand {
		t.Fatalf("expected sand after reload, got %d", id)
	}
}

func TestFailedLoadLeavesChunkAbsent(t *testing.T) {
	boom := errors.New("disk on fire")
	g, _ := newTestGrid(t, Config{Store: failingStore{MemoryStore: NewMemoryStore(), loadErr: boom}, ActiveRadius: 0})
	g.SetPointsOfInterest([]core.Point{{X: 0, Y: 0}})
	err := g.UpdateTiers()
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
	if g.Chunk(chunk.Key{}) != nil || g.Tier(chunk.Key{}) != Unloaded {
		t.Fatalf("a failed load must leave the chunk absent")
	}
}

func TestFailedSaveKeepsChunkLoaded(t *testing.T) {
	boom := errors.New("quota")
	g, _ := newTestGrid(t, Config{Store: failingStore{MemoryStore: NewMemoryStore(), saveErr: boom}})
	if _, err := g.Activate(chunk.Key{}); err != nil {
		t.Fatalf("activate: %v", err)
	}
	g.Deactivate(chunk.Key{})
	if err := g.UpdateTiers(); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
	if g.Tier(chunk.Key{}) != Loaded {
		t.Fatalf("unsaved chunk must stay in memory, tier %v", g.Tier(chunk.Key{}))
	}
}

func TestBoundsAndIsSolid(t *testing.T) {
	g, cat := newTestGrid(t, Config{Bounds: core.Rect{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}})
	if _, err := g.Activate(chunk.Key{X: 1}); err == nil {
		t.Fatalf("activating outside bounds should fail")
	}
	if _, err := g.Activate(chunk.Key{}); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if g.IsSolid(3, 3) {
		t.Fatalf("air is not solid")
	}
	g.Set(3, 3, cat.MustID(material.NameWater))
	if !g.IsSolid(3, 3) {
		t.Fatalf("liquids block debris")
	}
	g.Set(3, 3, cat.MustID(material.NameSteam))
	if g.IsSolid(3, 3) {
		t.Fatalf("gases do not block debris")
	}
	g.SetFlags(3, 3, chunk.Loose)
	if !g.IsSolid(3, 3) {
		t.Fatalf("loose pixels are solid")
	}
	if !g.IsSolid(64, 0) || !g.IsSolid(-1, 0) {
		t.Fatalf("cells outside the world are solid")
	}
}

func TestMarkDirtyReachesNeighbours(t *testing.T) {
	g, _ := newTestGrid(t, Config{})
	keys := []chunk.Key{{X: 0}, {X: 1}, {X: 0, Y: 1}}
	for _, k := range keys {
		if _, err := g.Activate(k); err != nil {
			t.Fatalf("activate: %v", err)
		}
	}
	for _, k := range keys {
		c := g.ActiveChunk(k)
		c.BeginTick()
		c.BeginTick()
	}
	g.MarkDirty(63, 63, 2, 1)
	right := g.ActiveChunk(chunk.Key{X: 1}).Dirty()
	if right != (core.Rect{MinX: 0, MinY: 62, MaxX: 2, MaxY: 64}) {
		t.Fatalf("unexpected neighbour dirty rect %v", right)
	}
	below := g.ActiveChunk(chunk.Key{Y: 1}).Dirty()
	if below != (core.Rect{MinX: 61, MinY: 0, MaxX: 64, MaxY: 1}) {
		t.Fatalf("unexpected lower dirty rect %v", below)
	}
}

func TestActivationWakesNeighbourBorder(t *testing.T) {
	g, _ := newTestGrid(t, Config{})
	c, err := g.Activate(chunk.Key{})
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	c.BeginTick()
	c.BeginTick()
	if _, err := g.Activate(chunk.Key{X: 1}); err != nil {
		t.Fatalf("activate: %v", err)
	}
	rx, _ := g.Reach()
	if d := c.Dirty(); d.MinX != chunk.Size-rx || d.MaxX != chunk.Size || d.Dy() != chunk.Size {
		t.Fatalf("left chunk border not marked: %v", d)
	}
}

func TestFlatGeneratorAndRenderData(t *testing.T) {
	g, cat := newTestGrid(t, Config{
		Ambient:   20,
		Generator: FlatGenerator{Floor: 60, Bedrock: 1, Fill: 3, FillFrom: 58},
	})
	if _, err := g.Activate(chunk.Key{}); err != nil {
		t.Fatalf("activate: %v", err)
	}
	v := g.RenderData(core.Rect{MinX: 62, MinY: 56, MaxX: 66, MaxY: 62})
	if len(v.Mats) != 4*6 {
		t.Fatalf("unexpected view size %d", len(v.Mats))
	}
	if v.Mats[v.At(62, 57)] != material.Air || v.Mats[v.At(62, 58)] != 3 || v.Mats[v.At(63, 60)] != 1 {
		t.Fatalf("flat generator layers wrong")
	}
	if v.Present[v.At(64, 60)] {
		t.Fatalf("pixels in missing chunks must not be present")
	}
	if v.Temps[v.At(62, 56)] != 20 {
		t.Fatalf("expected ambient temperature, got %v", v.Temps[v.At(62, 56)])
	}
	if cat.Get(1).Name != material.NameBedrock {
		t.Fatalf("test assumes id 1 is bedrock")
	}
}

func TestLevelDBStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenLevelDB(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Load(chunk.Key{X: 4, Y: -4}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	c := chunk.New(chunk.Key{X: 4, Y: -4}, 33)
	c.Set(1, 2, chunk.Pixel{Mat: 5})
	if err := s.Save(c); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = OpenLevelDB(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Load(chunk.Key{X: 4, Y: -4})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.At(1, 2).Mat != 5 || got.Temp(0, 0) != 33 {
		t.Fatalf("chunk mismatch after reopen")
	}
	if err := s.Delete(chunk.Key{X: 4, Y: -4}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(chunk.Key{X: 4, Y: -4}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
