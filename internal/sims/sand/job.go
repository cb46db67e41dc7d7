package sand

import (
	"sandfall/internal/chunk"
	"sandfall/internal/core"
	rng "sandfall/pkg/core"
)

// job is the per-chunk work item. Local coordinates are relative to the
// chunk origin and may reach one chunk into any neighbour.
type job struct {
	e      *Engine
	key    chunk.Key
	c      *chunk.Chunk
	ox, oy int

	nb  [3][3]*chunk.Chunk
	nbj [3][3]*job

	rng      rng.Stream
	triggers []core.Point
	stats    Stats

	// Coarse cell samples for the thermal pass.
	cond   [chunk.Cells]float32
	emitW  [chunk.Cells]float32
	emitWT [chunk.Cells]float32
}

var neighbours4 = [4]core.Point{{X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: -1}}

func (j *job) reseed(ph phase) {
	j.rng.Reseed(rng.Mix(j.e.seed, j.e.tick, uint64(ph), uint64(int64(j.key.X)), uint64(int64(j.key.Y))))
}

// cell resolves local (lx, ly) to a neighbourhood chunk and its in-chunk
// coordinates. The chunk is nil outside the active neighbourhood.
func (j *job) cell(lx, ly int) (*chunk.Chunk, int, int) {
	gx, gy := lx>>chunk.Shift+1, ly>>chunk.Shift+1
	if gx < 0 || gx > 2 || gy < 0 || gy > 2 {
		return nil, 0, 0
	}
	c := j.nb[gy][gx]
	if c == nil {
		return nil, 0, 0
	}
	return c, lx & chunk.Mask, ly & chunk.Mask
}

// at returns the pixel at local (lx, ly), or nil where the world is solid.
func (j *job) at(lx, ly int) *chunk.Pixel {
	c, x, y := j.cell(lx, ly)
	if c == nil {
		return nil
	}
	return &c.Pixels()[chunk.Index(x, y)]
}

func (j *job) temp(lx, ly int) float32 {
	c, x, y := j.cell(lx, ly)
	if c == nil {
		return j.e.cfg.Ambient
	}
	return c.Temp(x, y)
}

// mark dirties the interaction box around local (lx, ly) in every
// neighbourhood chunk it overlaps.
func (j *job) mark(lx, ly int) {
	rx, ry := j.e.reachX, j.e.reachY
	box := core.Rect{MinX: lx - rx, MinY: ly - ry, MaxX: lx + rx + 1, MaxY: ly + ry + 1}
	gx0, gx1 := clampNb(box.MinX>>chunk.Shift+1), clampNb((box.MaxX-1)>>chunk.Shift+1)
	gy0, gy1 := clampNb(box.MinY>>chunk.Shift+1), clampNb((box.MaxY-1)>>chunk.Shift+1)
	for gy := gy0; gy <= gy1; gy++ {
		for gx := gx0; gx <= gx1; gx++ {
			c := j.nb[gy][gx]
			if c == nil {
				continue
			}
			dx, dy := (gx-1)<<chunk.Shift, (gy-1)<<chunk.Shift
			c.MarkDirty(core.Rect{MinX: box.MinX - dx, MinY: box.MinY - dy, MaxX: box.MaxX - dx, MaxY: box.MaxY - dy})
		}
	}
}

func clampNb(v int) int { return max(0, min(2, v)) }

// trigger queues a structural check at local (lx, ly).
func (j *job) trigger(lx, ly int) {
	j.triggers = append(j.triggers, core.Point{X: j.ox + lx, Y: j.oy + ly})
}

// caPass scans the chunk bottom to top, alternating row direction, and
// updates every pixel inside the live work region.
func (j *job) caPass() {
	e, c := j.e, j.c
	skip := !e.cfg.DisableDirtySkip
	if skip && c.Idle() {
		j.stats.ChunksSkipped++
		return
	}
	j.stats.ChunksProcessed++
	j.reseed(phaseMove)

	work, gen := chunk.Bounds, c.Gen()
	if skip {
		work = c.Work(e.reachX, e.reachY)
	}
	for ly := chunk.Size - 1; ly >= 0; ly-- {
		ltr := (e.tick+uint64(j.oy+ly))&1 == 0
		for i := 0; i < chunk.Size; i++ {
			lx := i
			if !ltr {
				lx = chunk.Size - 1 - i
			}
			if skip {
				if g := c.Gen(); g != gen {
					gen = g
					work = c.Work(e.reachX, e.reachY)
				}
				if !work.Contains(lx, ly) {
					continue
				}
			}
			j.update(lx, ly)
		}
	}
}
