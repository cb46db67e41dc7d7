package material

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDefaultTableIsValid(t *testing.T) {
	cat, rt := Default()
	if cat.Len() != 14 {
		t.Fatalf("expected 14 built-in materials, got %d", cat.Len())
	}
	if cat.Get(Air).Name != NameAir {
		t.Fatalf("id 0 must be air, got %q", cat.Get(Air).Name)
	}
	if cat.MaxViscosity() != 4 {
		t.Fatalf("expected max viscosity 4, got %d", cat.MaxViscosity())
	}
	if rt.Len() != 4 {
		t.Fatalf("expected 4 reactions, got %d", rt.Len())
	}
	if !cat.Structural(cat.MustID(NameBedrock)) || !cat.Get(cat.MustID(NameBedrock)).Anchor {
		t.Fatalf("bedrock should be a structural anchor")
	}
}

func TestOnlySolidsStayPut(t *testing.T) {
	cat, _ := Default()
	for _, name := range []string{NameSand, NameWater, NameSteam} {
		if !cat.Get(cat.MustID(name)).Movable() {
			t.Fatalf("%s should be movable", name)
		}
	}
	for _, name := range []string{NameStone, NameBedrock} {
		if cat.Get(cat.MustID(name)).Movable() {
			t.Fatalf("%s should not be movable", name)
		}
	}
}

func TestLookupIsOrderIndependent(t *testing.T) {
	cat, rt := Default()
	lava, water := cat.MustID(NameLava), cat.MustID(NameWater)
	stone, steam := cat.MustID(NameStone), cat.MustID(NameSteam)

	r, ok := rt.Lookup(lava, water)
	if !ok || r.A != lava || r.ProductA != stone || r.ProductB != steam {
		t.Fatalf("lava+water lookup wrong: %+v ok=%v", r, ok)
	}
	r, ok = rt.Lookup(water, lava)
	if !ok || r.A != water || r.ProductA != steam || r.ProductB != stone {
		t.Fatalf("water+lava lookup should be oriented to water: %+v ok=%v", r, ok)
	}
	if rt.Has(cat.MustID(NameSand), water) {
		t.Fatalf("sand+water has no rule")
	}
}

func TestEligibleRespectsTemperatureWindow(t *testing.T) {
	cat, rt := Default()
	r, ok := rt.Lookup(cat.MustID(NameWater), cat.MustID(NameAsh))
	if !ok {
		t.Fatalf("water+ash rule missing")
	}
	if !r.Eligible(20, 0, 0) {
		t.Fatalf("20 degrees should be inside the window")
	}
	if r.Eligible(150, 0, 0) || r.Eligible(-5, 0, 0) {
		t.Fatalf("temperatures outside [0,100] must not be eligible")
	}
	r.MinPressure = 2
	if r.Eligible(20, 1, 0) {
		t.Fatalf("pressure trigger should block the reaction")
	}
}

func TestRisingAndFallingUseHysteresis(t *testing.T) {
	cat, _ := Default()
	water := cat.Get(cat.MustID(NameWater))
	if _, ok := water.Rising(101); ok {
		t.Fatalf("water should not boil inside the hysteresis band")
	}
	tr, ok := water.Rising(102)
	if !ok || tr.Into != cat.MustID(NameSteam) {
		t.Fatalf("water should boil at 102, got %+v ok=%v", tr, ok)
	}
	tr, ok = water.Falling(-2)
	if !ok || tr.Into != cat.MustID(NameIce) {
		t.Fatalf("water should freeze at -2, got %+v ok=%v", tr, ok)
	}
}

func TestValidateRejectsBadTables(t *testing.T) {
	base := defaultMaterials()

	noAir := append([]Material(nil), base...)
	noAir[0].Name = "vacuum"
	if _, err := NewCatalog(noAir); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for a renamed air, got %v", err)
	}

	flip := append([]Material(nil), base...)
	flip[5].Hysteresis = 0 // water
	flip[8].Hysteresis = 0 // steam
	if _, err := NewCatalog(flip); err == nil || !strings.Contains(err.Error(), "falls at") {
		t.Fatalf("expected a hysteresis error, got %v", err)
	}

	loose := append([]Material(nil), base...)
	loose[3].Structural = true // sand is a powder
	if _, err := NewCatalog(loose); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected structural powder to be rejected, got %v", err)
	}
}

func TestReactionTableRejectsDuplicates(t *testing.T) {
	cat, _ := Default()
	rules := defaultReactions(cat)
	dup := rules[0]
	dup.A, dup.B = dup.B, dup.A
	dup.ProductA, dup.ProductB = dup.ProductB, dup.ProductA
	_, err := NewReactionTable(cat, append(rules, dup))
	if !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate reaction error, got %v", err)
	}
}

func TestDecodeMinimalTable(t *testing.T) {
	const doc = `
[[material]]
name = "air"
state = "gas"
density = 1.0
conductivity = 0.1
specific_heat = 1.0

[[material]]
name = "mud"
state = "liquid"
density = 12.0
viscosity = 2
conductivity = 0.3
specific_heat = 3.0
color = "#604020"

[[material]]
name = "brick"
state = "solid"
density = 40.0
conductivity = 0.2
specific_heat = 1.0
structural = true

[material.melt]
at = 900.0
into = "mud"

[[reaction]]
a = "mud"
b = "brick"
product_a = "brick"
product_b = "brick"
max_temp = 50.0
`
	cat, rt, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	mud := cat.Get(cat.MustID("mud"))
	if mud.Viscosity != 2 || mud.Color.R != 0x60 || mud.Color.A != 0xff {
		t.Fatalf("mud decoded wrong: %+v", mud)
	}
	brick := cat.Get(cat.MustID("brick"))
	if !brick.Melt.Active || brick.Melt.Into != cat.MustID("mud") || brick.TransitionChance != 1 {
		t.Fatalf("brick melt decoded wrong: %+v", brick)
	}
	r, ok := rt.Lookup(cat.MustID("brick"), cat.MustID("mud"))
	if !ok || r.Chance != 1 || r.MaxTemp != 50 || r.MinTemp != -273 {
		t.Fatalf("reaction defaults wrong: %+v ok=%v", r, ok)
	}
}

func TestDecodeRejectsUnknownKeysAndNames(t *testing.T) {
	const typo = `
[[material]]
name = "air"
state = "gas"
density = 1.0
conductivity = 0.1
specific_heat = 1.0
denstiy = 2.0
`
	if _, _, err := Decode(strings.NewReader(typo)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected unknown key rejection, got %v", err)
	}
	const dangling = `
[[material]]
name = "air"
state = "gas"
density = 1.0
conductivity = 0.1
specific_heat = 1.0

[material.freeze]
at = -300.0
into = "nitrogen"
`
	if _, _, err := Decode(strings.NewReader(dangling)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected unknown material rejection, got %v", err)
	}
}

func TestEncodeDecodeDefaultTable(t *testing.T) {
	cat, rt := Default()
	var buf bytes.Buffer
	if err := Encode(&buf, cat, rt); err != nil {
		t.Fatalf("encode: %v", err)
	}
	cat2, rt2, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode of encoded table: %v\n%s", err, buf.String())
	}
	if cat2.Len() != cat.Len() || rt2.Len() != rt.Len() {
		t.Fatalf("table sizes changed: %d/%d materials, %d/%d reactions",
			cat2.Len(), cat.Len(), rt2.Len(), rt.Len())
	}
	lava := cat2.Get(cat2.MustID(NameLava))
	if lava.EmitTemp != 1200 || !lava.Freeze.Active || lava.Freeze.Into != cat2.MustID(NameRock) {
		t.Fatalf("lava lost its properties: %+v", lava)
	}
}
