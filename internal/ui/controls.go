package ui

import (
	"math"
	"strconv"
	"strings"

	"sandfall/internal/core"
)

const (
	defaultFloatStep = 0.05
	unknownValue     = "--"
	// readoutGroup names the snapshot group listed below the controls.
	readoutGroup = "Stats"
)

// knob is one adjustable parameter and the value last read from the sim.
// Bool values are held as 0 or 1 so every kind steps through next.
type knob struct {
	ctrl  core.ParameterControl
	known bool
	num   float64
}

func (k *knob) load(p core.Parameter, ok bool) {
	k.known = false
	if !ok {
		return
	}
	switch k.ctrl.Type {
	case core.ParamTypeInt:
		v, err := strconv.Atoi(p.Value)
		k.num, k.known = float64(v), err == nil
	case core.ParamTypeFloat:
		v, err := strconv.ParseFloat(p.Value, 64)
		k.num, k.known = v, err == nil
	case core.ParamTypeBool:
		v, err := strconv.ParseBool(p.Value)
		k.num, k.known = 0, err == nil
		if v {
			k.num = 1
		}
	}
}

// next returns the value one step in dir, clamped to the control's bounds.
// ok is false when the step would leave the value unchanged.
func (k *knob) next(dir int) (float64, bool) {
	if !k.known || dir == 0 {
		return k.num, false
	}
	var v float64
	switch k.ctrl.Type {
	case core.ParamTypeBool:
		// minus turns the flag off, plus turns it on
		if dir > 0 {
			v = 1
		}
	case core.ParamTypeInt:
		step := max(1, math.Round(k.ctrl.Step))
		v = k.clamp(k.num+float64(dir)*step, math.Round)
	case core.ParamTypeFloat:
		step := k.ctrl.Step
		if step <= 0 {
			step = defaultFloatStep
		}
		v = k.clamp(k.num+float64(dir)*step, func(f float64) float64 { return f })
	default:
		return k.num, false
	}
	if math.Abs(v-k.num) < 1e-9 {
		return k.num, false
	}
	return v, true
}

func (k *knob) clamp(v float64, bound func(float64) float64) float64 {
	if k.ctrl.HasMin {
		v = max(v, bound(k.ctrl.Min))
	}
	if k.ctrl.HasMax {
		v = min(v, bound(k.ctrl.Max))
	}
	return v
}

func (k *knob) text() string {
	if !k.known {
		return unknownValue
	}
	switch k.ctrl.Type {
	case core.ParamTypeInt:
		return strconv.Itoa(int(k.num))
	case core.ParamTypeFloat:
		return strconv.FormatFloat(k.num, 'f', precision(k.ctrl.Step), 64)
	case core.ParamTypeBool:
		if k.num != 0 {
			return "on"
		}
		return "off"
	}
	return unknownValue
}

// precision picks enough decimals to show one step.
func precision(step float64) int {
	if step <= 0 {
		step = defaultFloatStep
	}
	switch {
	case step < 0.001:
		return 4
	case step < 0.01:
		return 3
	case step < 0.1:
		return 2
	}
	return 1
}

// setters holds whichever parameter setters the sim implements.
type setters struct {
	ints   core.IntParameterSetter
	floats core.FloatParameterSetter
	bools  core.BoolParameterSetter
}

func settersOf(sim any) setters {
	var s setters
	s.ints, _ = sim.(core.IntParameterSetter)
	s.floats, _ = sim.(core.FloatParameterSetter)
	s.bools, _ = sim.(core.BoolParameterSetter)
	return s
}

func (s setters) supports(t core.ParamType) bool {
	switch t {
	case core.ParamTypeInt:
		return s.ints != nil
	case core.ParamTypeFloat:
		return s.floats != nil
	case core.ParamTypeBool:
		return s.bools != nil
	}
	return false
}

func (s setters) set(ctrl core.ParameterControl, v float64) bool {
	switch ctrl.Type {
	case core.ParamTypeInt:
		return s.ints != nil && s.ints.SetIntParameter(ctrl.Key, int(v))
	case core.ParamTypeFloat:
		return s.floats != nil && s.floats.SetFloatParameter(ctrl.Key, v)
	case core.ParamTypeBool:
		return s.bools != nil && s.bools.SetBoolParameter(ctrl.Key, v != 0)
	}
	return false
}

// readout is a read-only line of the panel.
type readout struct {
	label, value string
}

// controlPanel is the input-independent state of the HUD.
type controlPanel struct {
	title    string
	knobs    []knob
	readouts []readout
	set      setters
}

func newControlPanel(sim core.Sim) *controlPanel {
	p := &controlPanel{title: panelTitle(sim), set: settersOf(sim)}
	if provider, ok := sim.(core.ParameterControlsProvider); ok {
		for _, ctrl := range provider.ParameterControls() {
			p.knobs = append(p.knobs, knob{ctrl: ctrl})
		}
	}
	return p
}

func panelTitle(sim core.Sim) string {
	if sim == nil || sim.Name() == "" {
		return "Controls"
	}
	name := sim.Name()
	return strings.ToUpper(name[:1]) + name[1:] + " Controls"
}

// refresh reloads every knob and the readouts from snap.
func (p *controlPanel) refresh(snap core.ParameterSnapshot) {
	for i := range p.knobs {
		k := &p.knobs[i]
		param, ok := snap.Lookup(k.ctrl.Key)
		k.load(param, ok)
	}
	p.readouts = p.readouts[:0]
	for _, g := range snap.Groups {
		if g.Name != readoutGroup {
			continue
		}
		for _, param := range g.Params {
			p.readouts = append(p.readouts, readout{label: param.Label, value: param.Value})
		}
	}
}

// enabled reports whether stepping knob i in dir would change anything.
func (p *controlPanel) enabled(i, dir int) bool {
	k := &p.knobs[i]
	if !p.set.supports(k.ctrl.Type) {
		return false
	}
	_, ok := k.next(dir)
	return ok
}

// press steps knob i in dir and reports whether the sim accepted the value.
func (p *controlPanel) press(i, dir int) bool {
	k := &p.knobs[i]
	v, ok := k.next(dir)
	if !ok || !p.set.set(k.ctrl, v) {
		return false
	}
	k.num = v
	return true
}
