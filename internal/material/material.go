// Package material holds the static material catalog and the pairwise
// reaction table. Both are immutable once built and safe for concurrent reads.
package material

import (
	"fmt"
	"image/color"
)

// ID is a dense catalog index. Pixels store it directly.
type ID uint8

// Air is always id 0; an air pixel is an empty pixel.
const Air ID = 0

// MaxMaterials bounds the catalog so ids fit in a byte.
const MaxMaterials = 256

// MaxViscosity caps horizontal spread per tick. A spread plus its dirty
// marking reach must stay inside the neighbouring chunk.
const MaxViscosity = 24

// State is the movement class of a material.
type State uint8

const (
	Solid State = iota
	Powder
	Liquid
	Gas
)

var stateNames = [...]string{"solid", "powder", "liquid", "gas"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// ParseState converts a lower-case state name.
func ParseState(name string) (State, bool) {
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return 0, false
}

// Fluid reports whether pixels of this state can be displaced by denser matter.
func (s State) Fluid() bool { return s == Liquid || s == Gas }

// Transition converts a material into another once the coarse cell temperature
// crosses At (adjusted by the material's hysteresis margin).
type Transition struct {
	Active bool
	At     float32
	Into   ID
}

// Burn describes flammability. A pixel ignites when its cell reaches IgniteAt,
// then each tick turns into Into with probability Rate, releasing Heat.
type Burn struct {
	Active   bool
	IgniteAt float32
	Rate     float32
	Into     ID
	Heat     float32
}

// Material is one immutable catalog entry.
type Material struct {
	Name  string
	State State

	// Density orders displacement: heavier fluids sink through lighter ones.
	Density float32
	// Viscosity is the maximum horizontal spread per tick for liquids and gases.
	Viscosity int

	Conductivity float32
	SpecificHeat float32

	// Structural pixels take part in integrity analysis; Anchor pixels are
	// treated as permanently supported.
	Structural bool
	Anchor     bool

	Color color.RGBA

	Melt     Transition
	Boil     Transition
	Freeze   Transition
	Condense Transition

	// Hysteresis widens every threshold: rising transitions fire at At+H,
	// falling ones at At-H.
	Hysteresis float32
	// TransitionChance is the per-pixel probability a satisfied transition
	// is applied on a thermal pass.
	TransitionChance float32

	Burn Burn

	// EmitTemp/EmitRate pull the owning coarse cell toward EmitTemp in
	// proportion to the share of the cell this material occupies.
	EmitTemp float32
	EmitRate float32
}

// Rising returns the transition fired by a temperature increase, if any.
// Boiling takes precedence over melting.
func (m *Material) Rising(temp float32) (Transition, bool) {
	if m.Boil.Active && temp >= m.Boil.At+m.Hysteresis {
		return m.Boil, true
	}
	if m.Melt.Active && temp >= m.Melt.At+m.Hysteresis {
		return m.Melt, true
	}
	return Transition{}, false
}

// Falling returns the transition fired by a temperature decrease, if any.
func (m *Material) Falling(temp float32) (Transition, bool) {
	if m.Freeze.Active && temp <= m.Freeze.At-m.Hysteresis {
		return m.Freeze, true
	}
	if m.Condense.Active && temp <= m.Condense.At-m.Hysteresis {
		return m.Condense, true
	}
	return Transition{}, false
}

// Ignites reports whether a pixel of this material catches fire at temp.
func (m *Material) Ignites(temp float32) bool {
	return m.Burn.Active && temp >= m.Burn.IgniteAt
}

// Movable reports whether the CA moves pixels of this material on its own.
func (m *Material) Movable() bool { return m.State != Solid }
