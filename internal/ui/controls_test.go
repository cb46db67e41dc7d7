package ui

import (
	"strconv"
	"testing"

	"sandfall/internal/core"
)

type fakeSim struct {
	ints   map[string]int
	floats map[string]float64
	flags  map[string]bool
	reject bool
}

func newFakeSim() *fakeSim {
	return &fakeSim{
		ints:   map[string]int{"workers": 4},
		floats: map[string]float64{"rate": 0.2},
		flags:  map[string]bool{"skip": false},
	}
}

func (f *fakeSim) Name() string { return "sand" }
func (f *fakeSim) Size() core.Size { return core.Size{W: 8, H: 8} }
func (f *fakeSim) Reset(int64) {}
func (f *fakeSim) Step() {}
func (f *fakeSim) Cells() []uint8 { return nil }

func (f *fakeSim) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "workers", Label: "Workers", Type: core.ParamTypeInt, Step: 2, Min: 1, Max: 5, HasMin: true, HasMax: true},
		{Key: "rate", Label: "Rate", Type: core.ParamTypeFloat, Step: 0.01, Min: 0, Max: 0.21, HasMin: true, HasMax: true},
		{Key: "skip", Label: "Skip", Type: core.ParamTypeBool},
		{Key: "missing", Label: "Missing", Type: core.ParamTypeInt},
	}
}

func (f *fakeSim) Parameters() core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{Name: "Engine", Params: []core.Parameter{
			{Key: "workers", Value: strconv.Itoa(f.ints["workers"])},
			{Key: "rate", Value: strconv.FormatFloat(f.floats["rate"], 'f', -1, 64)},
			{Key: "skip", Value: strconv.FormatBool(f.flags["skip"])},
		}},
		{Name: readoutGroup, Params: []core.Parameter{
			{Key: "moves", Label: "Moves", Value: "12"},
		}},
	}}
}

func (f *fakeSim) SetIntParameter(key string, v int) bool {
	if f.reject {
		return false
	}
	f.ints[key] = v
	return true
}

func (f *fakeSim) SetFloatParameter(key string, v float64) bool {
	if f.reject {
		return false
	}
	f.floats[key] = v
	return true
}

func (f *fakeSim) SetBoolParameter(key string, v bool) bool {
	if f.reject {
		return false
	}
	f.flags[key] = v
	return true
}

func TestPanelLoadsValuesAndReadouts(t *testing.T) {
	sim := newFakeSim()
	p := newControlPanel(sim)
	p.refresh(sim.Parameters())

	if p.title != "Sand Controls" {
		t.Fatalf("title = %q", p.title)
	}
	want := []string{"4", "0.20", "off", unknownValue}
	for i, w := range want {
		if got := p.knobs[i].text(); got != w {
			t.Fatalf("knob %d shows %q, want %q", i, got, w)
		}
	}
	if len(p.readouts) != 1 || p.readouts[0] != (readout{label: "Moves", value: "12"}) {
		t.Fatalf("unexpected readouts %+v", p.readouts)
	}
}

func TestPressClampsToBounds(t *testing.T) {
	sim := newFakeSim()
	p := newControlPanel(sim)
	p.refresh(sim.Parameters())

	if !p.press(0, 1) || sim.ints["workers"] != 5 {
		t.Fatalf("int step should clamp to the maximum, got %d", sim.ints["workers"])
	}
	if p.enabled(0, 1) {
		t.Fatalf("plus should be disabled at the maximum")
	}
	if p.press(0, 1) {
		t.Fatalf("a step that changes nothing must not reach the sim")
	}
	if !p.press(1, 1) || sim.floats["rate"] != 0.21 {
		t.Fatalf("float step should clamp to 0.21, got %v", sim.floats["rate"])
	}
	if !p.press(2, 1) || !sim.flags["skip"] || p.knobs[2].text() != "on" {
		t.Fatalf("plus should switch the flag on")
	}
	if p.enabled(2, 1) || !p.enabled(2, -1) {
		t.Fatalf("only minus should be enabled for a flag that is on")
	}
	if p.enabled(3, 1) || p.press(3, 1) {
		t.Fatalf("a control without a value cannot be adjusted")
	}
}

func TestRejectedValueIsNotKept(t *testing.T) {
	sim := newFakeSim()
	p := newControlPanel(sim)
	p.refresh(sim.Parameters())
	sim.reject = true

	if p.press(0, -1) {
		t.Fatalf("press should report the rejection")
	}
	if got := p.knobs[0].text(); got != "4" {
		t.Fatalf("rejected value leaked into the panel: %s", got)
	}
}

func TestPanelWithoutSetters(t *testing.T) {
	sim := newFakeSim()
	p := newControlPanel(sim)
	p.set = setters{}
	p.refresh(sim.Parameters())
	for i := range p.knobs {
		if p.enabled(i, 1) || p.enabled(i, -1) {
			t.Fatalf("knob %d enabled with no setter", i)
		}
	}
}
