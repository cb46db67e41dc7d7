package world

import (
	"sandfall/internal/chunk"
	"sandfall/internal/core"
	"sandfall/internal/material"
)

// RenderView is a read-only copy of a pixel rectangle. Slices are row-major
// over Rect. Cells outside active chunks have Present set to false.
type RenderView struct {
	Rect    core.Rect
	Mats    []material.ID
	Temps   []float32
	Flags   []chunk.Flags
	Present []bool
}

// At returns the index of world pixel (x, y) in the view's slices.
func (v *RenderView) At(x, y int) int {
	return (y-v.Rect.MinY)*v.Rect.Dx() + (x - v.Rect.MinX)
}

// RenderData copies materials, coarse temperatures and flags for r.
func (g *Grid) RenderData(r core.Rect) RenderView {
	var v RenderView
	g.RenderInto(r, &v)
	return v
}

// RenderInto fills v for r, reusing its buffers.
func (g *Grid) RenderInto(r core.Rect, v *RenderView) {
	n := r.Dx() * r.Dy()
	v.Rect = r
	v.Mats = resize(v.Mats, n)
	v.Temps = resize(v.Temps, n)
	v.Flags = resize(v.Flags, n)
	v.Present = resize(v.Present, n)
	i := 0
	for y := r.MinY; y < r.MaxY; y++ {
		for x := r.MinX; x < r.MaxX; x++ {
			c, lx, ly := g.locate(x, y)
			if c == nil {
				v.Mats[i], v.Temps[i], v.Flags[i], v.Present[i] = material.Air, 0, 0, false
			} else {
				p := c.At(lx, ly)
				v.Mats[i], v.Temps[i], v.Flags[i], v.Present[i] = p.Mat, c.Temp(lx, ly), p.Flags, true
			}
			i++
		}
	}
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
