package sand

import (
	"sandfall/internal/chunk"
	"sandfall/internal/material"
)

// react checks the four neighbours of the pixel at local (lx, ly). Each
// unordered pair is looked at once per tick: a pixel that checked a rule
// pair is Visited and later checks skip it. Pairs with a rule keep the area
// dirty whether or not they fire, so a pixel with no rule partner is never
// flagged and skipping settled areas cannot change which pairs are checked.
func (j *job) react(lx, ly int) {
	p := j.at(lx, ly)
	if p.Flags&chunk.Reacted != 0 {
		return
	}
	e := j.e
	for _, d := range neighbours4 {
		nx, ny := lx+d.X, ly+d.Y
		q := j.at(nx, ny)
		if q == nil || q.Flags&(chunk.Visited|chunk.Reacted) != 0 {
			continue
		}
		r, ok := e.rt.Lookup(p.Mat, q.Mat)
		if !ok {
			continue
		}
		p.Flags |= chunk.Visited
		j.mark(lx, ly)
		j.mark(nx, ny)
		var pressure, light float32
		if e.env != nil && (r.MinPressure > 0 || r.MinLight > 0) {
			pressure = e.env.Pressure(j.ox+lx, j.oy+ly)
			light = e.env.Light(j.ox+lx, j.oy+ly)
		}
		if !r.Eligible(j.temp(lx, ly), pressure, light) {
			continue
		}
		if r.Chance < 1 && j.rng.Float32() >= r.Chance {
			continue
		}
		j.replace(lx, ly, p, r.ProductA)
		j.replace(nx, ny, q, r.ProductB)
		j.depositHeat(lx, ly, r.Heat)
		j.stats.Reactions++
		return
	}
}

// replace turns p into a reaction product. A product of the same material
// keeps its flags.
func (j *job) replace(lx, ly int, p *chunk.Pixel, into material.ID) {
	if from := p.Mat; into != from {
		*p = chunk.Pixel{Mat: into}
		if j.e.props[from].structural && !j.e.props[into].structural {
			j.trigger(lx, ly)
		}
	}
	p.Flags |= chunk.Reacted | chunk.Visited
	j.mark(lx, ly)
}

// burn advances a burning pixel. It reports whether the pixel burned out.
func (j *job) burn(lx, ly int, p *chunk.Pixel) bool {
	j.mark(lx, ly)
	b := &j.e.cat.Get(p.Mat).Burn
	if !b.Active {
		p.Flags &^= chunk.Burning
		return false
	}
	if j.rng.Float32() >= b.Rate {
		return false
	}
	from := p.Mat
	*p = chunk.Pixel{Mat: b.Into, Flags: chunk.Reacted | chunk.Visited}
	if j.e.props[from].structural && !j.e.props[b.Into].structural {
		j.trigger(lx, ly)
	}
	j.depositHeat(lx, ly, b.Heat)
	j.stats.Burned++
	return true
}

// depositHeat raises the coarse cell owning local (lx, ly) by heat divided
// by the mean specific heat of its pixels.
func (j *job) depositHeat(lx, ly int, heat float32) {
	if heat == 0 {
		return
	}
	c, x, y := j.cell(lx, ly)
	if c == nil {
		return
	}
	x0, y0 := x&^(chunk.CoarseSize-1), y&^(chunk.CoarseSize-1)
	var sum float32
	for yy := y0; yy < y0+chunk.CoarseSize; yy++ {
		for xx := x0; xx < x0+chunk.CoarseSize; xx++ {
			sum += j.e.props[c.At(xx, yy).Mat].specificHeat
		}
	}
	c.AddTemp(x, y, heat*chunk.CoarseSize*chunk.CoarseSize/sum)
}
