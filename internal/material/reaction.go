package material

import (
	"errors"
	"fmt"
	"math"
)

// Unbounded is the open upper temperature limit for a reaction.
const Unbounded float32 = math.MaxFloat32

// Reaction turns an adjacent pair (A, B) into (ProductA, ProductB) and
// deposits Heat into the coarse cell of the A side.
type Reaction struct {
	A, B               ID
	ProductA, ProductB ID

	MinTemp, MaxTemp float32
	// MinPressure and MinLight are optional triggers evaluated against the
	// engine's environment collaborator. Zero disables the check.
	MinPressure float32
	MinLight    float32

	// Chance is the per-tick probability once the pair is eligible.
	Chance float32
	Heat   float32
}

// Eligible reports whether the trigger conditions hold.
func (r *Reaction) Eligible(temp, pressure, light float32) bool {
	if temp < r.MinTemp || temp > r.MaxTemp {
		return false
	}
	if r.MinPressure > 0 && pressure < r.MinPressure {
		return false
	}
	if r.MinLight > 0 && light < r.MinLight {
		return false
	}
	return true
}

func (r Reaction) flipped() Reaction {
	r.A, r.B = r.B, r.A
	r.ProductA, r.ProductB = r.ProductB, r.ProductA
	return r
}

// ReactionTable answers pair lookups in O(1) through a dense slot array
// keyed by the unordered pair.
type ReactionTable struct {
	n     int
	slots []uint16 // rule index + 1; 0 means no rule
	rules []Reaction
}

// NewReactionTable validates rules against the catalog and indexes them.
func NewReactionTable(c *Catalog, rules []Reaction) (*ReactionTable, error) {
	n := c.Len()
	t := &ReactionTable{
		n:     n,
		slots: make([]uint16, n*n),
		rules: make([]Reaction, 0, len(rules)),
	}
	var errs []error
	for i, r := range rules {
		if int(r.A) >= n || int(r.B) >= n || int(r.ProductA) >= n || int(r.ProductB) >= n {
			errs = append(errs, fmt.Errorf("%w: reaction %d references an unknown material", ErrInvalid, i))
			continue
		}
		if r.Chance <= 0 || r.Chance > 1 {
			errs = append(errs, fmt.Errorf("%w: reaction %s+%s chance %v outside (0,1]",
				ErrInvalid, c.Get(r.A).Name, c.Get(r.B).Name, r.Chance))
			continue
		}
		if r.MinTemp > r.MaxTemp {
			errs = append(errs, fmt.Errorf("%w: reaction %s+%s has an empty temperature range",
				ErrInvalid, c.Get(r.A).Name, c.Get(r.B).Name))
			continue
		}
		if r.ProductA == r.A && r.ProductB == r.B {
			errs = append(errs, fmt.Errorf("%w: reaction %s+%s changes nothing",
				ErrInvalid, c.Get(r.A).Name, c.Get(r.B).Name))
			continue
		}
		k := t.key(r.A, r.B)
		if t.slots[k] != 0 {
			errs = append(errs, fmt.Errorf("%w: duplicate reaction for %s+%s",
				ErrInvalid, c.Get(r.A).Name, c.Get(r.B).Name))
			continue
		}
		if r.A > r.B {
			r = r.flipped()
		}
		t.rules = append(t.rules, r)
		t.slots[k] = uint16(len(t.rules))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

func (t *ReactionTable) key(a, b ID) int {
	if a > b {
		a, b = b, a
	}
	return int(a)*t.n + int(b)
}

// Lookup returns the rule for the unordered pair, oriented so that the
// returned A equals a.
func (t *ReactionTable) Lookup(a, b ID) (Reaction, bool) {
	if int(a) >= t.n || int(b) >= t.n {
		return Reaction{}, false
	}
	s := t.slots[t.key(a, b)]
	if s == 0 {
		return Reaction{}, false
	}
	r := t.rules[s-1]
	if r.A != a {
		r = r.flipped()
	}
	return r, true
}

// Has reports whether any rule exists for the pair.
func (t *ReactionTable) Has(a, b ID) bool {
	if int(a) >= t.n || int(b) >= t.n {
		return false
	}
	return t.slots[t.key(a, b)] != 0
}

// Len returns the number of rules.
func (t *ReactionTable) Len() int { return len(t.rules) }

// Rules returns a copy of the canonical rules.
func (t *ReactionTable) Rules() []Reaction { return append([]Reaction(nil), t.rules...) }
