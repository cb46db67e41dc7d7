package material

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type fileTable struct {
	Materials []fileMaterial `toml:"material"`
	Reactions []fileReaction `toml:"reaction"`
}

type fileTransition struct {
	At   float32 `toml:"at"`
	Into string  `toml:"into"`
}

type fileBurn struct {
	IgniteAt float32 `toml:"ignite_at"`
	Rate     float32 `toml:"rate"`
	Into     string  `toml:"into"`
	Heat     float32 `toml:"heat"`
}

type fileMaterial struct {
	Name             string          `toml:"name"`
	State            string          `toml:"state"`
	Density          float32         `toml:"density"`
	Viscosity        int             `toml:"viscosity,omitempty"`
	Conductivity     float32         `toml:"conductivity"`
	SpecificHeat     float32         `toml:"specific_heat"`
	Structural       bool            `toml:"structural,omitempty"`
	Anchor           bool            `toml:"anchor,omitempty"`
	Color            string          `toml:"color,omitempty"`
	Hysteresis       float32         `toml:"hysteresis,omitempty"`
	TransitionChance *float32        `toml:"transition_chance,omitempty"`
	Melt             *fileTransition `toml:"melt,omitempty"`
	Boil             *fileTransition `toml:"boil,omitempty"`
	Freeze           *fileTransition `toml:"freeze,omitempty"`
	Condense         *fileTransition `toml:"condense,omitempty"`
	Burn             *fileBurn       `toml:"burn,omitempty"`
	EmitTemp         float32         `toml:"emit_temp,omitempty"`
	EmitRate         float32         `toml:"emit_rate,omitempty"`
}

type fileReaction struct {
	A           string   `toml:"a"`
	B           string   `toml:"b"`
	ProductA    string   `toml:"product_a"`
	ProductB    string   `toml:"product_b"`
	MinTemp     *float32 `toml:"min_temp,omitempty"`
	MaxTemp     *float32 `toml:"max_temp,omitempty"`
	MinPressure float32  `toml:"min_pressure,omitempty"`
	MinLight    float32  `toml:"min_light,omitempty"`
	Chance      *float32 `toml:"chance,omitempty"`
	Heat        float32  `toml:"heat,omitempty"`
}

// LoadFile reads a TOML material table from disk.
func LoadFile(path string) (*Catalog, *ReactionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("material: open %s: %w", path, err)
	}
	defer f.Close()
	cat, rt, err := Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("material: %s: %w", path, err)
	}
	return cat, rt, nil
}

// Decode parses a TOML material table. Materials are assigned ids in file
// order; reactions refer to materials by name. Unknown keys are rejected.
func Decode(r io.Reader) (*Catalog, *ReactionTable, error) {
	var ft fileTable
	md, err := toml.NewDecoder(r).Decode(&ft)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, nil, fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}

	names := make(map[string]ID, len(ft.Materials))
	for i, fm := range ft.Materials {
		if i >= MaxMaterials {
			break
		}
		if _, dup := names[fm.Name]; !dup {
			names[fm.Name] = ID(i)
		}
	}

	var errs []error
	resolve := func(owner, field, name string) ID {
		id, ok := names[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s: %s refers to unknown material %q", ErrInvalid, owner, field, name))
		}
		return id
	}
	transition := func(owner, field string, ft *fileTransition) Transition {
		if ft == nil {
			return Transition{}
		}
		return Transition{Active: true, At: ft.At, Into: resolve(owner, field, ft.Into)}
	}

	mats := make([]Material, len(ft.Materials))
	for i, fm := range ft.Materials {
		state, ok := ParseState(fm.State)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: material %q: unknown state %q", ErrInvalid, fm.Name, fm.State))
		}
		col, err := parseColor(fm.Color)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: material %q: %v", ErrInvalid, fm.Name, err))
		}
		m := Material{
			Name:             fm.Name,
			State:            state,
			Density:          fm.Density,
			Viscosity:        fm.Viscosity,
			Conductivity:     fm.Conductivity,
			SpecificHeat:     fm.SpecificHeat,
			Structural:       fm.Structural,
			Anchor:           fm.Anchor,
			Color:            col,
			Hysteresis:       fm.Hysteresis,
			TransitionChance: 1,
			Melt:             transition(fm.Name, "melt", fm.Melt),
			Boil:             transition(fm.Name, "boil", fm.Boil),
			Freeze:           transition(fm.Name, "freeze", fm.Freeze),
			Condense:         transition(fm.Name, "condense", fm.Condense),
			EmitTemp:         fm.EmitTemp,
			EmitRate:         fm.EmitRate,
		}
		if fm.TransitionChance != nil {
			m.TransitionChance = *fm.TransitionChance
		}
		if fm.Burn != nil {
			m.Burn = Burn{
				Active:   true,
				IgniteAt: fm.Burn.IgniteAt,
				Rate:     fm.Burn.Rate,
				Into:     resolve(fm.Name, "burn", fm.Burn.Into),
				Heat:     fm.Burn.Heat,
			}
		}
		mats[i] = m
	}

	rules := make([]Reaction, len(ft.Reactions))
	for i, fr := range ft.Reactions {
		owner := fmt.Sprintf("reaction %d (%s+%s)", i, fr.A, fr.B)
		r := Reaction{
			A:           resolve(owner, "a", fr.A),
			B:           resolve(owner, "b", fr.B),
			ProductA:    resolve(owner, "product_a", fr.ProductA),
			ProductB:    resolve(owner, "product_b", fr.ProductB),
			MinTemp:     -273,
			MaxTemp:     Unbounded,
			MinPressure: fr.MinPressure,
			MinLight:    fr.MinLight,
			Chance:      1,
			Heat:        fr.Heat,
		}
		if fr.MinTemp != nil {
			r.MinTemp = *fr.MinTemp
		}
		if fr.MaxTemp != nil {
			r.MaxTemp = *fr.MaxTemp
		}
		if fr.Chance != nil {
			r.Chance = *fr.Chance
		}
		rules[i] = r
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}

	cat, err := NewCatalog(mats)
	if err != nil {
		return nil, nil, err
	}
	rt, err := NewReactionTable(cat, rules)
	if err != nil {
		return nil, nil, err
	}
	return cat, rt, nil
}

// Encode writes the catalog and reactions as TOML that Decode accepts.
func Encode(w io.Writer, c *Catalog, rt *ReactionTable) error {
	ft := fileTable{Materials: make([]fileMaterial, c.Len())}
	name := func(id ID) string { return c.Get(id).Name }
	transition := func(t Transition) *fileTransition {
		if !t.Active {
			return nil
		}
		return &fileTransition{At: t.At, Into: name(t.Into)}
	}
	for i := 0; i < c.Len(); i++ {
		m := c.Get(ID(i))
		chance := m.TransitionChance
		fm := fileMaterial{
			Name:             m.Name,
			State:            m.State.String(),
			Density:          m.Density,
			Viscosity:        m.Viscosity,
			Conductivity:     m.Conductivity,
			SpecificHeat:     m.SpecificHeat,
			Structural:       m.Structural,
			Anchor:           m.Anchor,
			Color:            formatColor(m.Color),
			Hysteresis:       m.Hysteresis,
			TransitionChance: &chance,
			Melt:             transition(m.Melt),
			Boil:             transition(m.Boil),
			Freeze:           transition(m.Freeze),
			Condense:         transition(m.Condense),
			EmitTemp:         m.EmitTemp,
			EmitRate:         m.EmitRate,
		}
		if m.Burn.Active {
			fm.Burn = &fileBurn{IgniteAt: m.Burn.IgniteAt, Rate: m.Burn.Rate, Into: name(m.Burn.Into), Heat: m.Burn.Heat}
		}
		ft.Materials[i] = fm
	}
	if rt != nil {
		rules := rt.Rules()
		sort.SliceStable(rules, func(i, j int) bool {
			if rules[i].A != rules[j].A {
				return rules[i].A < rules[j].A
			}
			return rules[i].B < rules[j].B
		})
		for _, r := range rules {
			minT, maxT, chance := r.MinTemp, r.MaxTemp, r.Chance
			fr := fileReaction{
				A: name(r.A), B: name(r.B),
				ProductA: name(r.ProductA), ProductB: name(r.ProductB),
				MinTemp: &minT, Chance: &chance,
				MinPressure: r.MinPressure, MinLight: r.MinLight,
				Heat: r.Heat,
			}
			if maxT != Unbounded {
				fr.MaxTemp = &maxT
			}
			ft.Reactions = append(ft.Reactions, fr)
		}
	}
	return toml.NewEncoder(w).Encode(ft)
}

func parseColor(s string) (color.RGBA, error) {
	if s == "" {
		return color.RGBA{R: 255, G: 0, B: 255, A: 255}, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("color %q must be #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %v", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func formatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
