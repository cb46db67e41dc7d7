package sand

import (
	"sandfall/internal/chunk"
)

// thermal runs one temperature pass: per-cell sampling, diffusion into the
// next buffer, a swap, then state changes by colour class.
func (e *Engine) thermal(st *Stats) {
	e.parallel((*job).sample)
	e.parallel((*job).diffuse)
	for _, j := range e.ordered {
		j.c.SwapTemps()
	}
	e.runClasses(phaseThermal, st)
	st.ThermalPasses++
}

// sample computes the mean conductivity and emission weights of every
// coarse cell of the chunk.
func (j *job) sample() {
	const inv = 1.0 / (chunk.CoarseSize * chunk.CoarseSize)
	pix := j.c.Pixels()
	for cy := 0; cy < chunk.Coarse; cy++ {
		for cx := 0; cx < chunk.Coarse; cx++ {
			var k, w, wt float32
			for y := cy * chunk.CoarseSize; y < (cy+1)*chunk.CoarseSize; y++ {
				for x := cx * chunk.CoarseSize; x < (cx+1)*chunk.CoarseSize; x++ {
					pr := &j.e.props[pix[chunk.Index(x, y)].Mat]
					k += pr.conductivity
					if pr.emitRate > 0 {
						w += pr.emitRate
						wt += pr.emitRate * pr.emitTemp
					}
				}
			}
			i := cy*chunk.Coarse + cx
			j.cond[i] = k * inv
			j.emitW[i] = w * inv
			j.emitWT[i] = wt * inv
		}
	}
}

// diffuse writes the next temperatures of the chunk. Each of the four
// exchanges is weighted by the mean conductivity of the two cells and the
// diffusion rate, which keeps the update a convex combination. Cells next to
// inactive chunks exchange nothing across that edge.
func (j *job) diffuse() {
	rate := j.e.cfg.DiffusionRate
	cur, next := j.c.Temps(), j.c.NextTemps()
	for cy := 0; cy < chunk.Coarse; cy++ {
		for cx := 0; cx < chunk.Coarse; cx++ {
			i := cy*chunk.Coarse + cx
			t, k := cur[i], j.cond[i]
			var flux float32
			for _, d := range neighbours4 {
				nt, nk, ok := j.coarse(cx+d.X, cy+d.Y)
				if !ok {
					continue
				}
				flux += (k + nk) * 0.5 * (nt - t)
			}
			v := t + rate*flux
			v += j.emitWT[i] - j.emitW[i]*v
			next[i] = v
		}
	}
}

// coarse returns the temperature and sampled conductivity of coarse cell
// (cx, cy), which may lie in a neighbouring chunk.
func (j *job) coarse(cx, cy int) (float32, float32, bool) {
	gx, gy := 1, 1
	switch {
	case cx < 0:
		gx, cx = 0, cx+chunk.Coarse
	case cx >= chunk.Coarse:
		gx, cx = 2, cx-chunk.Coarse
	}
	switch {
	case cy < 0:
		gy, cy = 0, cy+chunk.Coarse
	case cy >= chunk.Coarse:
		gy, cy = 2, cy-chunk.Coarse
	}
	n := j.nbj[gy][gx]
	if n == nil {
		return 0, 0, false
	}
	i := cy*chunk.Coarse + cx
	return n.c.Temps()[i], n.cond[i], true
}

// stateChanges applies ignition and phase transitions to every pixel of
// the chunk against its freshly diffused cell temperature.
func (j *job) stateChanges() {
	j.reseed(phaseThermal)
	e := j.e
	pix := j.c.Pixels()
	for ly := 0; ly < chunk.Size; ly++ {
		for lx := 0; lx < chunk.Size; lx++ {
			p := &pix[chunk.Index(lx, ly)]
			m := e.cat.Get(p.Mat)
			t := j.c.Temp(lx, ly)

			if p.Flags&chunk.Burning == 0 && m.Ignites(t) {
				p.Flags |= chunk.Burning
				j.mark(lx, ly)
				j.stats.Ignitions++
			}

			tr, ok := m.Rising(t)
			if !ok {
				tr, ok = m.Falling(t)
			}
			if !ok {
				continue
			}
			if m.TransitionChance < 1 && j.rng.Float32() >= m.TransitionChance {
				continue
			}
			from := p.Mat
			*p = chunk.Pixel{Mat: tr.Into}
			if e.props[from].structural && !e.props[tr.Into].structural {
				j.trigger(lx, ly)
			}
			j.mark(lx, ly)
			j.stats.StateChanges++
		}
	}
}
