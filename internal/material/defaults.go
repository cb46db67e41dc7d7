package material

import "image/color"

// Built-in material names.
const (
	NameAir     = "air"
	NameBedrock = "bedrock"
	NameStone   = "stone"
	NameSand    = "sand"
	NameGravel  = "gravel"
	NameWater   = "water"
	NameOil     = "oil"
	NameLava    = "lava"
	NameSteam   = "steam"
	NameSmoke   = "smoke"
	NameIce     = "ice"
	NameWood    = "wood"
	NameAsh     = "ash"
	NameRock    = "rock"
)

// Default returns the built-in catalog and reaction table.
func Default() (*Catalog, *ReactionTable) {
	cat, err := NewCatalog(defaultMaterials())
	if err != nil {
		panic(err)
	}
	rt, err := NewReactionTable(cat, defaultReactions(cat))
	if err != nil {
		panic(err)
	}
	return cat, rt
}

// Ids are fixed by slice position; keep in sync with the name constants.
func defaultMaterials() []Material {
	const (
		air ID = iota
		bedrock
		stone
		sand
		gravel
		water
		oil
		lava
		steam
		smoke
		ice
		wood
		ash
		rock
	)
	return []Material{
		air: {
			Name: NameAir, State: Gas, Density: 1,
			Conductivity: 0.08, SpecificHeat: 1, TransitionChance: 1,
			Color: color.RGBA{R: 12, G: 12, B: 18, A: 255},
		},
		bedrock: {
			Name: NameBedrock, State: Solid, Density: 1000,
			Conductivity: 0.15, SpecificHeat: 2, TransitionChance: 1,
			Structural: true, Anchor: true,
			Color: color.RGBA{R: 48, G: 44, B: 52, A: 255},
		},
		stone: {
			Name: NameStone, State: Solid, Density: 30,
			Conductivity: 0.3, SpecificHeat: 0.8, TransitionChance: 0.05,
			Structural: true, Hysteresis: 25,
			Melt:  Transition{Active: true, At: 1200, Into: lava},
			Color: color.RGBA{R: 128, G: 128, B: 134, A: 255},
		},
		sand: {
			Name: NameSand, State: Powder, Density: 16,
			Conductivity: 0.2, SpecificHeat: 0.8, TransitionChance: 1,
			Color: color.RGBA{R: 222, G: 196, B: 120, A: 255},
		},
		gravel: {
			Name: NameGravel, State: Powder, Density: 18,
			Conductivity: 0.25, SpecificHeat: 0.8, TransitionChance: 1,
			Color: color.RGBA{R: 110, G: 104, B: 96, A: 255},
		},
		water: {
			Name: NameWater, State: Liquid, Density: 10, Viscosity: 4,
			Conductivity: 0.5, SpecificHeat: 4.2, TransitionChance: 0.2,
			Hysteresis: 2,
			Boil:   Transition{Active: true, At: 100, Into: steam},
			Freeze: Transition{Active: true, At: 0, Into: ice},
			Color:  color.RGBA{R: 48, G: 96, B: 210, A: 255},
		},
		oil: {
			Name: NameOil, State: Liquid, Density: 8, Viscosity: 3,
			Conductivity: 0.15, SpecificHeat: 2, TransitionChance: 1,
			Burn:  Burn{Active: true, IgniteAt: 220, Rate: 0.05, Into: smoke, Heat: 40},
			Color: color.RGBA{R: 70, G: 50, B: 30, A: 255},
		},
		lava: {
			Name: NameLava, State: Liquid, Density: 25, Viscosity: 1,
			Conductivity: 0.6, SpecificHeat: 1, TransitionChance: 0.05,
			Hysteresis: 20,
			Freeze:   Transition{Active: true, At: 700, Into: rock},
			EmitTemp: 1200, EmitRate: 0.2,
			Color: color.RGBA{R: 255, G: 96, B: 32, A: 255},
		},
		steam: {
			Name: NameSteam, State: Gas, Density: 0.5, Viscosity: 3,
			Conductivity: 0.1, SpecificHeat: 2, TransitionChance: 0.02,
			Hysteresis: 2,
			Condense: Transition{Active: true, At: 100, Into: water},
			Color:    color.RGBA{R: 200, G: 210, B: 225, A: 255},
		},
		smoke: {
			Name: NameSmoke, State: Gas, Density: 0.7, Viscosity: 2,
			Conductivity: 0.05, SpecificHeat: 1, TransitionChance: 0.01,
			Freeze: Transition{Active: true, At: 40, Into: air},
			Color:  color.RGBA{R: 72, G: 72, B: 76, A: 255},
		},
		ice: {
			Name: NameIce, State: Solid, Density: 9,
			Conductivity: 0.45, SpecificHeat: 2.1, TransitionChance: 0.1,
			Structural: true, Hysteresis: 2,
			Melt:  Transition{Active: true, At: 0, Into: water},
			Color: color.RGBA{R: 170, G: 220, B: 245, A: 255},
		},
		wood: {
			Name: NameWood, State: Solid, Density: 6,
			Conductivity: 0.1, SpecificHeat: 1.7, TransitionChance: 1,
			Structural: true,
			Burn:  Burn{Active: true, IgniteAt: 280, Rate: 0.02, Into: ash, Heat: 60},
			Color: color.RGBA{R: 120, G: 80, B: 40, A: 255},
		},
		ash: {
			Name: NameAsh, State: Powder, Density: 5,
			Conductivity: 0.1, SpecificHeat: 0.8, TransitionChance: 1,
			Color: color.RGBA{R: 160, G: 156, B: 150, A: 255},
		},
		rock: {
			Name: NameRock, State: Solid, Density: 28,
			Conductivity: 0.3, SpecificHeat: 0.8, TransitionChance: 0.05,
			Structural: true, Hysteresis: 25,
			Melt:  Transition{Active: true, At: 1200, Into: lava},
			Color: color.RGBA{R: 60, G: 52, B: 56, A: 255},
		},
	}
}

func defaultReactions(c *Catalog) []Reaction {
	id := c.MustID
	return []Reaction{
		{
			A: id(NameLava), B: id(NameWater),
			ProductA: id(NameStone), ProductB: id(NameSteam),
			MinTemp: -273, MaxTemp: Unbounded, Chance: 1, Heat: 150,
		},
		{
			A: id(NameLava), B: id(NameIce),
			ProductA: id(NameRock), ProductB: id(NameWater),
			MinTemp: -273, MaxTemp: Unbounded, Chance: 1, Heat: -40,
		},
		{
			A: id(NameLava), B: id(NameOil),
			ProductA: id(NameLava), ProductB: id(NameSmoke),
			MinTemp: -273, MaxTemp: Unbounded, Chance: 0.5, Heat: 80,
		},
		{
			A: id(NameWater), B: id(NameAsh),
			ProductA: id(NameWater), ProductB: id(NameSand),
			MinTemp: 0, MaxTemp: 100, Chance: 0.01,
		},
	}
}
