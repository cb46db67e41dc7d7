package sand

import (
	"testing"

	"sandfall/internal/core"
	"sandfall/internal/material"
)

func newTestSim(t *testing.T) *Sim {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 96, 80
	cfg.Workers = 2
	s, err := NewSim(cfg)
	if err != nil {
		t.Fatalf("new sim: %v", err)
	}
	return s
}

func TestSimIsRegistered(t *testing.T) {
	f, ok := core.Sims()["sand"]
	if !ok {
		t.Fatalf("sand sim not registered")
	}
	s := f(map[string]string{"w": "64", "h": "64"})
	if s.Name() != "sand" || s.Size() != (core.Size{W: 64, H: 64}) {
		t.Fatalf("unexpected sim %s %+v", s.Name(), s.Size())
	}
}

func TestSimBrushesFollowCatalogIDs(t *testing.T) {
	s := newTestSim(t)
	var bp core.BrushProvider = s
	names := bp.Brushes()
	if len(names) != s.cat.Len() {
		t.Fatalf("got %d brushes, want %d", len(names), s.cat.Len())
	}
	if names[0] != material.NameAir {
		t.Fatalf("brush 0 = %q, want air", names[0])
	}
	if id := s.cat.MustID(material.NameWater); names[id] != material.NameWater {
		t.Fatalf("brush %d = %q, want water", id, names[id])
	}
}

func TestSimBordersAndPaint(t *testing.T) {
	s := newTestSim(t)
	bedrock := s.cat.MustID(material.NameBedrock)
	sand := s.cat.MustID(material.NameSand)
	cells := s.Cells()
	if len(cells) != 96*80 {
		t.Fatalf("unexpected cell count %d", len(cells))
	}
	if cells[0] != uint8(bedrock) || cells[79*96+50] != uint8(bedrock) {
		t.Fatalf("viewport must be enclosed in bedrock")
	}

	s.Paint(40, 10, uint8(sand), 2)
	painted := 0
	for _, v := range s.Cells() {
		if v == uint8(sand) {
			painted++
		}
	}
	if painted != 13 {
		t.Fatalf("expected a 13 pixel disc, got %d", painted)
	}
	s.Paint(0, 40, uint8(sand), 0)
	if s.Cells()[40*96] != uint8(bedrock) {
		t.Fatalf("painting must not touch the border")
	}

	for i := 0; i < 5; i++ {
		s.Step()
	}
	if id, _ := s.Engine().GetPixel(40, 17); id != sand {
		t.Fatalf("expected the disc to fall five pixels")
	}
	if p := s.Palette(); p[sand] != s.cat.Get(sand).Color {
		t.Fatalf("palette does not follow the catalog")
	}
}

func TestSimFields(t *testing.T) {
	s := newTestSim(t)
	temp := s.Field("temperature")
	if len(temp) != 96*80 {
		t.Fatalf("unexpected field length %d", len(temp))
	}
	for _, v := range temp {
		if v < 0 || v > 1 {
			t.Fatalf("field value %v outside [0,1]", v)
		}
	}
	if s.Field("pressure") != nil {
		t.Fatalf("unknown fields must be nil")
	}
	s.Step()
	s.Paint(40, 10, uint8(s.cat.MustID(material.NameSand)), 0)
	if d := s.Field("dirty"); d[10*96+40] != 1 {
		t.Fatalf("painted pixel should be dirty")
	}
}

func TestSimParameters(t *testing.T) {
	s := newTestSim(t)
	snap := s.Parameters()
	if p, ok := snap.Lookup("workers"); !ok || p.Value != "2" {
		t.Fatalf("unexpected workers parameter %+v", p)
	}
	if !s.SetFloatParameter("gravity", 100) || s.Engine().Config().Gravity != 100 {
		t.Fatalf("gravity not applied")
	}
	if s.SetFloatParameter("diffusion_rate", 0.5) {
		t.Fatalf("out of range diffusion rate accepted")
	}
	if !s.SetIntParameter("particle_threshold", 10) || s.Engine().Config().ParticleThreshold != 10 {
		t.Fatalf("threshold not applied")
	}
	if s.SetIntParameter("nope", 1) {
		t.Fatalf("unknown key accepted")
	}
	if !s.SetBoolParameter("disable_dirty_skip", true) || !s.Engine().Config().DisableDirtySkip {
		t.Fatalf("dirty skip toggle not applied")
	}
	if len(s.ParameterControls()) == 0 {
		t.Fatalf("expected HUD controls")
	}
}
