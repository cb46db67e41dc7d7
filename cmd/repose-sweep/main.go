// Command repose-sweep drops blocks of granular material into an empty basin
// across seeds and worker counts, reporting the resulting pile slope, the tick
// the pile came to rest and whether every worker count produced the same
// final grid.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"sandfall/internal/material"
	"sandfall/internal/sims/sand"
)

type paramSet struct {
	material string
	width    int
	height   int
	seed     int64
	workers  int
}

func (p paramSet) String() string {
	return fmt.Sprintf("mat=%s block=%dx%d seed=%d workers=%d", p.material, p.width, p.height, p.seed, p.workers)
}

// scene identifies a run independently of its worker count.
func (p paramSet) scene() string {
	return fmt.Sprintf("%s/%dx%d/%d", p.material, p.width, p.height, p.seed)
}

type scenarioResult struct {
	params    paramSet
	err       error
	settledAt int
	maxSlope  int
	peak      int
	spread    int
	moves     int
	checksum  uint32
}

func main() {
	steps := flag.Int("steps", 600, "maximum ticks to simulate per scenario")
	workers := flag.Int("workers", runtime.NumCPU(), "number of scenarios run concurrently")
	mats := flag.String("materials", "sand,gravel,ash", "comma-separated granular materials")
	seeds := flag.Int("seeds", 3, "seeds per configuration")
	flag.Parse()

	widthOptions := []int{8, 24}
	heightOptions := []int{20, 40}
	engineWorkers := []int{1, 4}

	var sets []paramSet
	for _, m := range strings.Split(*mats, ",") {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		for _, w := range widthOptions {
			for _, h := range heightOptions {
				for s := 1; s <= *seeds; s++ {
					for _, ew := range engineWorkers {
						sets = append(sets, paramSet{material: m, width: w, height: h, seed: int64(s), workers: ew})
					}
				}
			}
		}
	}

	fmt.Printf("Sweeping %d scenarios (%d concurrent, %d steps)\n", len(sets), *workers, *steps)

	jobs := make(chan paramSet)
	results := make(chan scenarioResult)
	var wg sync.WaitGroup

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				results <- runScenario(params, *steps)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, params := range sets {
			jobs <- params
		}
		close(jobs)
	}()

	start := time.Now()
	var all []scenarioResult
	checksums := map[string]map[uint32]bool{}
	for res := range results {
		if res.err != nil {
			fmt.Printf("FAILED %s: %v\n", res.params, res.err)
			continue
		}
		all = append(all, res)
		key := res.params.scene()
		if checksums[key] == nil {
			checksums[key] = map[uint32]bool{}
		}
		checksums[key][res.checksum] = true
		if res.maxSlope > 1 {
			fmt.Printf("Steep pile: slope %d with %s\n", res.maxSlope, res.params)
		}
		if res.settledAt == 0 {
			fmt.Printf("Did not settle within %d steps: %s\n", *steps, res.params)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].params.scene() != all[j].params.scene() {
			return all[i].params.scene() < all[j].params.scene()
		}
		return all[i].params.workers < all[j].params.workers
	})
	elapsed := time.Since(start)

	fmt.Printf("\nResults (elapsed %s):\n", elapsed.Round(time.Millisecond))
	for _, res := range all {
		fmt.Printf("%-40s settled=%4d slope=%d peak=%3d spread=%3d moves=%7d crc=%08x\n",
			res.params, res.settledAt, res.maxSlope, res.peak, res.spread, res.moves, res.checksum)
	}

	var diverged []string
	for key, sums := range checksums {
		if len(sums) > 1 {
			diverged = append(diverged, key)
		}
	}
	sort.Strings(diverged)
	if len(diverged) == 0 {
		fmt.Printf("\nAll %d scenes identical across worker counts %v\n", len(checksums), engineWorkers)
		return
	}
	fmt.Printf("\n%d scenes diverged across worker counts: %s\n", len(diverged), strings.Join(diverged, ", "))
}

func runScenario(params paramSet, steps int) scenarioResult {
	res := scenarioResult{params: params}
	cfg := sand.DefaultConfig()
	cfg.Width = 160
	cfg.Height = 112
	cfg.Seed = params.seed
	cfg.Workers = params.workers
	cfg.ThermalInterval = 0

	sim, err := sand.NewSim(cfg)
	if err != nil {
		res.err = err
		return res
	}
	engine := sim.Engine()
	id, ok := engine.Catalog().ByName(params.material)
	if !ok {
		res.err = fmt.Errorf("unknown material %q", params.material)
		return res
	}
	if m := engine.Catalog().Get(id); m.State != material.Powder {
		res.err = fmt.Errorf("%s is %s, not a powder", params.material, m.State)
		return res
	}

	x0 := cfg.Width/2 - params.width/2
	for y := 4; y < 4+params.height; y++ {
		for x := x0; x < x0+params.width; x++ {
			engine.SetPixel(x, y, id)
		}
	}

	const quietTicks = 4
	quiet := 0
	for step := 0; step < steps; step++ {
		sim.Step()
		moves := engine.LastStats().Moves
		res.moves += moves
		if moves > 0 {
			quiet = 0
			continue
		}
		quiet++
		if quiet == quietTicks {
			res.settledAt = step + 2 - quietTicks
			break
		}
	}

	floor := cfg.Height - 2
	prev := -1
	for x := 2; x < cfg.Width-2; x++ {
		h := 0
		for y := 0; y < floor; y++ {
			if got, _ := engine.GetPixel(x, y); got == id {
				h = floor - y
				break
			}
		}
		if h > 0 {
			res.spread++
		}
		res.peak = max(res.peak, h)
		if prev >= 0 {
			res.maxSlope = max(res.maxSlope, abs(h-prev))
		}
		prev = h
	}
	res.checksum = crc32.ChecksumIEEE(sim.Cells())
	return res
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
