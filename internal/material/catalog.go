package material

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid marks a malformed material or reaction table.
var ErrInvalid = errors.New("material: invalid table")

// Catalog is the dense, read-only material table.
type Catalog struct {
	mats         []Material
	byName       map[string]ID
	maxViscosity int
}

// NewCatalog validates mats and builds a catalog. Index i becomes ID(i).
func NewCatalog(mats []Material) (*Catalog, error) {
	c := &Catalog{
		mats:   append([]Material(nil), mats...),
		byName: make(map[string]ID, len(mats)),
	}
	for i, m := range c.mats {
		if _, dup := c.byName[m.Name]; !dup && m.Name != "" {
			c.byName[m.Name] = ID(i)
		}
		if m.State.Fluid() && m.Viscosity > c.maxViscosity {
			c.maxViscosity = m.Viscosity
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Len returns the number of materials.
func (c *Catalog) Len() int { return len(c.mats) }

// Get returns the material for id. Ids stored in pixels always come from this
// catalog, so an out-of-range id is a programming error and panics.
func (c *Catalog) Get(id ID) *Material { return &c.mats[id] }

// ByName resolves a material name.
func (c *Catalog) ByName(name string) (ID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// MustID resolves a name or panics. Intended for built-in tables and tests.
func (c *Catalog) MustID(name string) ID {
	id, ok := c.byName[name]
	if !ok {
		panic(fmt.Sprintf("material: unknown material %q", name))
	}
	return id
}

// MaxViscosity is the widest horizontal reach of any fluid in the catalog.
func (c *Catalog) MaxViscosity() int { return c.maxViscosity }

// Materials returns a copy of the table.
func (c *Catalog) Materials() []Material { return append([]Material(nil), c.mats...) }

// Structural reports whether id participates in integrity analysis.
func (c *Catalog) Structural(id ID) bool { return c.mats[id].Structural }

// Validate reports every problem in the table joined into one error.
func (c *Catalog) Validate() error {
	var errs []error
	bad := func(name, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: material %q: %s", ErrInvalid, name, fmt.Sprintf(format, args...)))
	}
	if len(c.mats) == 0 {
		return fmt.Errorf("%w: empty catalog", ErrInvalid)
	}
	if len(c.mats) > MaxMaterials {
		return fmt.Errorf("%w: %d materials exceed the limit of %d", ErrInvalid, len(c.mats), MaxMaterials)
	}
	if air := c.mats[Air]; air.Name != "air" || air.State != Gas {
		bad(air.Name, "id 0 must be the gas named air")
	}
	seen := make(map[string]bool, len(c.mats))
	for i := range c.mats {
		m := &c.mats[i]
		if m.Name == "" {
			bad(fmt.Sprintf("#%d", i), "missing name")
		} else if seen[m.Name] {
			bad(m.Name, "duplicate name")
		}
		seen[m.Name] = true
		if m.State > Gas {
			bad(m.Name, "unknown state %d", m.State)
		}
		if !(m.Density > 0) || math.IsInf(float64(m.Density), 0) {
			bad(m.Name, "density must be positive, got %v", m.Density)
		}
		if m.Conductivity < 0 || m.Conductivity > 1 {
			bad(m.Name, "conductivity %v outside [0,1]", m.Conductivity)
		}
		if m.SpecificHeat <= 0 {
			bad(m.Name, "specific heat must be positive, got %v", m.SpecificHeat)
		}
		if m.Viscosity < 0 || m.Viscosity > MaxViscosity {
			bad(m.Name, "viscosity %d outside [0,%d]", m.Viscosity, MaxViscosity)
		}
		if m.State.Fluid() && m.Viscosity == 0 && i != int(Air) {
			bad(m.Name, "fluids need a viscosity of at least 1")
		}
		if m.TransitionChance <= 0 || m.TransitionChance > 1 {
			bad(m.Name, "transition chance %v outside (0,1]", m.TransitionChance)
		}
		if m.Hysteresis < 0 {
			bad(m.Name, "negative hysteresis %v", m.Hysteresis)
		}
		if m.Anchor && (!m.Structural || m.State != Solid) {
			bad(m.Name, "anchors must be structural solids")
		}
		if m.Structural && m.State != Solid {
			bad(m.Name, "structural materials must be solid")
		}
		for _, lt := range []struct {
			label string
			t     Transition
		}{{"melt", m.Melt}, {"boil", m.Boil}, {"freeze", m.Freeze}, {"condense", m.Condense}} {
			label, t := lt.label, lt.t
			if t.Active && int(t.Into) >= len(c.mats) {
				bad(m.Name, "%s target %d out of range", label, t.Into)
			}
			if t.Active && int(t.Into) == i {
				bad(m.Name, "%s target is the material itself", label)
			}
		}
		if m.Burn.Active {
			if int(m.Burn.Into) >= len(c.mats) {
				bad(m.Name, "burn target %d out of range", m.Burn.Into)
			}
			if m.Burn.Rate <= 0 || m.Burn.Rate > 1 {
				bad(m.Name, "burn rate %v outside (0,1]", m.Burn.Rate)
			}
		}
		if m.EmitRate < 0 || m.EmitRate > 1 {
			bad(m.Name, "emit rate %v outside [0,1]", m.EmitRate)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return c.validateHysteresis()
}

// validateHysteresis rejects reversible pairs whose rising threshold does not
// sit strictly above the falling one; such a pair would flip every pass.
func (c *Catalog) validateHysteresis() error {
	var errs []error
	check := func(m *Material, up Transition, downOf func(*Material) Transition) {
		if !up.Active {
			return
		}
		other := &c.mats[up.Into]
		down := downOf(other)
		if !down.Active || down.Into != c.byName[m.Name] {
			return
		}
		rise := up.At + m.Hysteresis
		fall := down.At - other.Hysteresis
		if rise <= fall {
			errs = append(errs, fmt.Errorf("%w: %s->%s rises at %v but %s->%s falls at %v",
				ErrInvalid, m.Name, other.Name, rise, other.Name, m.Name, fall))
		}
	}
	for i := range c.mats {
		m := &c.mats[i]
		check(m, m.Melt, func(o *Material) Transition { return o.Freeze })
		check(m, m.Boil, func(o *Material) Transition { return o.Condense })
	}
	return errors.Join(errs...)
}
