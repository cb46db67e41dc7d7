// Command sandfall runs the pixel engine headless over an open world with a
// flat floor, optionally persisting chunks to LevelDB and streaming frames to
// websocket observers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sandfall/internal/core"
	"sandfall/internal/material"
	"sandfall/internal/observe"
	"sandfall/internal/sims/sand"
	"sandfall/internal/world"
)

type options struct {
	configPath string
	materials  string
	dbDir      string
	listen     string

	ticks   int
	tps     int
	seed    int64
	workers int
	radius  int
	report  int

	floor    int
	fill     string
	fillFrom int
	pour     string

	viewW, viewH int

	// set records which flags were given explicitly so they override the
	// config file.
	set map[string]bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "engine config TOML file")
	flag.StringVar(&o.materials, "materials", "", "material table TOML file")
	flag.StringVar(&o.dbDir, "db", "", "LevelDB directory for evicted chunks (memory when empty)")
	flag.StringVar(&o.listen, "listen", "", "serve websocket frames on this address at /ws")
	flag.IntVar(&o.ticks, "ticks", 600, "ticks to run (0 runs until interrupted)")
	flag.IntVar(&o.tps, "tps", 60, "ticks per second (0 runs unthrottled)")
	flag.Int64Var(&o.seed, "seed", 1337, "world seed")
	flag.IntVar(&o.workers, "workers", 0, "worker goroutines (0 keeps the config value)")
	flag.IntVar(&o.radius, "radius", 2, "active radius in chunks around the point of interest")
	flag.IntVar(&o.report, "report", 120, "log a stats report every n ticks")
	flag.IntVar(&o.floor, "floor", 128, "row of the bedrock floor")
	flag.StringVar(&o.fill, "fill", "", "material filling the band above the floor")
	flag.IntVar(&o.fillFrom, "fill-from", 112, "first row of the fill band")
	flag.StringVar(&o.pour, "pour", material.NameSand, "material poured at the point of interest every tick (empty disables)")
	flag.IntVar(&o.viewW, "view-w", 256, "width of the streamed frame")
	flag.IntVar(&o.viewH, "view-h", 192, "height of the streamed frame")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	o.set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, o, logger)
	stop()
	if err != nil {
		log.Fatalf("sandfall: %v", err)
	}
}

func loadConfig(o options) (sand.Config, error) {
	cfg := sand.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = sand.LoadConfigFile(o.configPath); err != nil {
			return sand.Config{}, err
		}
	}
	if o.set["seed"] || o.configPath == "" {
		cfg.Seed = o.seed
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	if o.set["report"] || o.configPath == "" {
		cfg.ReportEvery = o.report
	}
	if o.materials != "" {
		cfg.MaterialsFile = o.materials
	}
	return cfg, cfg.Validate()
}

func lookup(cat *material.Catalog, name string) (material.ID, error) {
	if name == "" {
		return material.Air, nil
	}
	id, ok := cat.ByName(name)
	if !ok {
		return 0, fmt.Errorf("unknown material %q", name)
	}
	return id, nil
}

func run(ctx context.Context, o options, logger *slog.Logger) (err error) {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	cfg.Logger = logger

	cat, rt := material.Default()
	if cfg.MaterialsFile != "" {
		if cat, rt, err = material.LoadFile(cfg.MaterialsFile); err != nil {
			return err
		}
	}
	bedrock, err := lookup(cat, material.NameBedrock)
	if err != nil {
		return err
	}
	fill, err := lookup(cat, o.fill)
	if err != nil {
		return err
	}
	pour, err := lookup(cat, o.pour)
	if err != nil {
		return err
	}

	var store world.Store
	if o.dbDir != "" {
		db, err := world.OpenLevelDB(o.dbDir)
		if err != nil {
			return err
		}
		store = db
	}
	grid := world.New(world.Config{
		Catalog:      cat,
		Store:        store,
		Generator:    world.FlatGenerator{Floor: o.floor, Bedrock: bedrock, Fill: fill, FillFrom: o.fillFrom},
		Ambient:      cfg.Ambient,
		ActiveRadius: o.radius,
		LoadMargin:   1,
		Logger:       logger,
	})
	defer func() {
		if cerr := grid.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	engine, err := sand.New(cfg, grid, cat, rt)
	if err != nil {
		return err
	}
	poi := core.Point{X: 0, Y: o.floor - o.viewH/2}
	engine.SetPointsOfInterest([]core.Point{poi})
	if err := engine.UpdateTiers(); err != nil {
		return err
	}
	rect := core.RectXYWH(poi.X-o.viewW/2, poi.Y-o.viewH/2, o.viewW, o.viewH)

	var hub *observe.Hub
	if o.listen != "" {
		ln, err := net.Listen("tcp", o.listen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", o.listen, err)
		}
		hub = observe.NewHub(logger)
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("observer server stopped", "err", err)
			}
		}()
		logger.Info("streaming frames", "addr", ln.Addr().String(), "path", "/ws")
		defer func() {
			hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	var step *core.FixedStep
	dt := time.Second / 60
	if o.tps > 0 {
		step = core.NewFixedStep(o.tps)
		dt = step.Step()
	}

	logger.Info("starting", "seed", cfg.Seed, "workers", cfg.Workers, "radius", o.radius, "ticks", o.ticks)
	start := time.Now()
	var view world.RenderView
	done := func(n int) bool { return o.ticks > 0 && n >= o.ticks }
	for n := 0; !done(n); {
		select {
		case <-ctx.Done():
			logger.Info("interrupted", "tick", engine.Tick())
			return nil
		default:
		}
		due := 1
		if step != nil {
			if due = step.Due(time.Now()); due == 0 {
				time.Sleep(step.Step() / 4)
				continue
			}
		}
		for ; due > 0 && !done(n); due-- {
			if pour != material.Air {
				x, y := poi.X+int(engine.Tick()%7)-3, rect.MinY+2
				if id, ok := engine.GetPixel(x, y); ok && id == material.Air {
					engine.SetPixel(x, y, pour)
				}
			}
			engine.Advance(dt)
			n++
		}
		if hub != nil && hub.Len() > 0 {
			engine.RenderInto(rect, &view)
			hub.Broadcast(engine.Tick(), view)
		}
	}

	st := engine.Stats()
	logger.Info("finished",
		"ticks", st.Ticks,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"moves", st.Moves,
		"reactions", st.Reactions,
		"state_changes", st.StateChanges,
		"chunks_processed", st.ChunksProcessed,
		"chunks_skipped", st.ChunksSkipped,
		"non_air", grid.CountNonAir(),
	)
	return nil
}
