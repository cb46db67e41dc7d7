package world

import (
	"sandfall/internal/chunk"
	"sandfall/internal/material"
)

// Generator fills a freshly created all-air chunk.
type Generator interface {
	Generate(c *chunk.Chunk)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(c *chunk.Chunk)

func (f GeneratorFunc) Generate(c *chunk.Chunk) { f(c) }

// EmptyGenerator leaves chunks as air.
type EmptyGenerator struct{}

func (EmptyGenerator) Generate(*chunk.Chunk) {}

// FlatGenerator lays a bedrock floor from row Floor downward and optionally a
// band of Fill from row FillFrom down to the floor.
type FlatGenerator struct {
	Floor    int
	Bedrock  material.ID
	Fill     material.ID
	FillFrom int
}

func (g FlatGenerator) Generate(c *chunk.Chunk) {
	_, oy := c.Key.Origin()
	for ly := 0; ly < chunk.Size; ly++ {
		y := oy + ly
		var id material.ID
		switch {
		case y >= g.Floor:
			id = g.Bedrock
		case g.Fill != material.Air && y >= g.FillFrom:
			id = g.Fill
		default:
			continue
		}
		for lx := 0; lx < chunk.Size; lx++ {
			c.Set(lx, ly, chunk.Pixel{Mat: id})
		}
	}
}
