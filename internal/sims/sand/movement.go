package sand

import (
	"sandfall/internal/chunk"
	"sandfall/internal/material"
)

// update runs one pixel: burning, movement, then reactions at the position
// it ended up in.
func (j *job) update(lx, ly int) {
	p := j.at(lx, ly)
	if p.Air() || p.Flags&(chunk.Moved|chunk.Reacted) != 0 {
		return
	}
	if p.Flags&chunk.Burning != 0 && j.burn(lx, ly, p) {
		return
	}
	pr := &j.e.props[p.Mat]
	x, y := lx, ly
	switch {
	case p.Flags&chunk.Loose != 0 || pr.state == material.Powder:
		x, y = j.fall(lx, ly, pr.density, 1)
	case pr.movable:
		x, y = j.flow(lx, ly, pr)
	}
	j.react(x, y)
}

// open reports whether a mover of the given density may swap vertically or
// diagonally into q, moving in direction dy.
func (j *job) open(q *chunk.Pixel, density float32, dy int) bool {
	if q == nil || q.Flags&(chunk.Moved|chunk.Loose) != 0 {
		return false
	}
	qp := &j.e.props[q.Mat]
	if !qp.fluid {
		return false
	}
	if dy > 0 {
		return qp.density < density
	}
	return qp.density > density
}

// sideOpen reports whether a horizontal spread may pass through q. Liquids
// spread through any gas, gases only through air.
func (j *job) sideOpen(q *chunk.Pixel, gas bool) bool {
	if q == nil || q.Flags&chunk.Moved != 0 {
		return false
	}
	if gas {
		return q.Mat == material.Air
	}
	return j.e.props[q.Mat].state == material.Gas
}

// fall tries straight ahead in direction dy, then both diagonals. The RNG
// is consulted only when both diagonals are open.
func (j *job) fall(lx, ly int, density float32, dy int) (int, int) {
	ny := ly + dy
	if j.open(j.at(lx, ny), density, dy) {
		return j.swap(lx, ly, lx, ny)
	}
	l := j.open(j.at(lx-1, ny), density, dy)
	r := j.open(j.at(lx+1, ny), density, dy)
	switch {
	case l && r:
		if j.rng.Bool() {
			return j.swap(lx, ly, lx-1, ny)
		}
		return j.swap(lx, ly, lx+1, ny)
	case l:
		return j.swap(lx, ly, lx-1, ny)
	case r:
		return j.swap(lx, ly, lx+1, ny)
	}
	return lx, ly
}

// flow moves a liquid or gas: vertically when its density gives it a
// direction, otherwise or failing that sideways to the farthest reachable
// cell on the more open side.
func (j *job) flow(lx, ly int, pr *prop) (int, int) {
	if pr.dir != 0 {
		if x, y := j.fall(lx, ly, pr.density, pr.dir); x != lx || y != ly {
			return x, y
		}
	}
	gas := pr.state == material.Gas
	left := j.run(lx, ly, -1, pr.visc, gas)
	right := j.run(lx, ly, 1, pr.visc, gas)
	switch {
	case left == 0 && right == 0:
		return lx, ly
	case left > right:
		return j.swap(lx, ly, lx-left, ly)
	case right > left:
		return j.swap(lx, ly, lx+right, ly)
	case j.rng.Bool():
		return j.swap(lx, ly, lx-left, ly)
	default:
		return j.swap(lx, ly, lx+right, ly)
	}
}

// run counts contiguous open cells in direction dx, up to limit.
func (j *job) run(lx, ly, dx, limit int, gas bool) int {
	n := 0
	for n < limit && j.sideOpen(j.at(lx+(n+1)*dx, ly), gas) {
		n++
	}
	return n
}

// swap exchanges the mover at a with the pixel at b. Only the mover is
// flagged as moved.
func (j *job) swap(ax, ay, bx, by int) (int, int) {
	a, b := j.at(ax, ay), j.at(bx, by)
	*a, *b = *b, *a
	b.Flags |= chunk.Moved
	j.mark(ax, ay)
	j.mark(bx, by)
	j.stats.Moves++
	return bx, by
}
