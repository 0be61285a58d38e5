// Command rubble-sim runs generated terrain headless across many seeds,
// blasting craters on a schedule and reporting how much broke off, how much
// settled back and whether the liquid stayed put.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"rubble/internal/app"
	"rubble/internal/core"
	"rubble/internal/engine"
	"rubble/internal/gen"
	"rubble/internal/lattice"
	"rubble/internal/store"
	pcore "rubble/pkg/core"
)

type result struct {
	seed       int64
	solidStart int
	solidEnd   int
	islands    int
	brokenOff  int
	rejected   int
	merged     int
	bodies     int
	liquidIn   float64
	liquidOut  float64
	lost       float64
	elapsed    time.Duration
}

func main() {
	seeds := flag.Int("seeds", 8, "number of seeds to simulate")
	first := flag.Int64("seed", 1, "first seed")
	steps := flag.Int("steps", 300, "ticks to simulate per seed")
	workers := flag.Int("workers", runtime.NumCPU(), "seeds simulated concurrently")
	explosions := flag.Int("explosions", 4, "craters blasted per seed")
	dbPath := flag.String("db", "", "level store to save final terrain into (optional)")
	verbose := flag.Bool("v", false, "log engine debug output")
	set := app.Overrides{}
	flag.Var(set, "set", "engine or generator override in key=value form (repeatable)")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var db *store.Store
	if *dbPath != "" {
		var err error
		if db, err = store.Open(*dbPath, logger); err != nil {
			log.Fatalf("%v", err)
		}
		defer db.Close()
	}

	cfg := engine.FromMap(set)
	cfg.Logger = logger
	gc := gen.FromMap(set)

	fmt.Printf("Simulating %d seeds (%d workers, %d steps, %d explosions)\n", *seeds, *workers, *steps, *explosions)

	results := make([]result, *seeds)
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(*workers, 1))
	for i := range results {
		seed := *first + int64(i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, lat, err := run(cfg, gc, seed, *steps, *explosions)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = res
			if db != nil {
				return db.SaveLattice(fmt.Sprintf("sim-%d", seed), lat)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("%v", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].brokenOff > results[j].brokenOff })
	fmt.Printf("%8s %8s %8s %7s %6s %6s %6s %6s %10s %10s %8s\n",
		"seed", "solid0", "solid", "islands", "broke", "small", "merged", "live", "liquid0", "liquid", "time")
	for _, r := range results {
		fmt.Printf("%8d %8d %8d %7d %6d %6d %6d %6d %10.3f %10.3f %8s\n",
			r.seed, r.solidStart, r.solidEnd, r.islands, r.brokenOff, r.rejected, r.merged, r.bodies,
			r.liquidIn, r.liquidOut+r.lost, r.elapsed.Round(time.Millisecond))
	}
}

// run generates terrain for seed and advances it steps ticks, spreading the
// explosions evenly over the run.
func run(cfg engine.Config, gc gen.Config, seed int64, steps, explosions int) (result, *lattice.Lattice, error) {
	start := time.Now()
	cfg.Seed = seed
	gc.Seed = seed
	e := engine.New(cfg, nil, nil)
	if err := e.Load(gen.Generate(gc, e.Lattice().Dims())); err != nil {
		return result{}, nil, err
	}
	st := e.Tick(0)
	res := result{seed: seed, solidStart: st.Solid, liquidIn: st.Liquid}

	rng := pcore.NewRNG(seed)
	every := steps
	if explosions > 0 {
		every = max(steps/(explosions+1), 1)
	}
	blasted := 0
	for i := 1; i <= steps; i++ {
		if blasted < explosions && i%every == 0 {
			blast(e, rng)
			blasted++
		}
		st = e.Tick(core.MaxStep)
		res.islands += st.Islands
		res.brokenOff += st.BrokenOff
		res.rejected += st.Rejected
		res.merged += st.Merged
	}
	res.solidEnd = st.Solid
	res.bodies = st.Bodies
	res.liquidOut = st.Liquid
	res.lost = st.LostLiquid
	res.elapsed = time.Since(start)
	return res, e.Lattice(), nil
}

// blast carves a crater at the surface of a random column.
func blast(e *engine.Engine, rng *pcore.RNG) {
	lat := e.Lattice()
	d := lat.Dims()
	x, z := rng.IntN(d.X), rng.IntN(d.Z)
	y := d.Y - 1
	for y > 0 && !lat.Solid(lattice.Index{X: x, Y: y, Z: z}) {
		y--
	}
	radius := float32(rng.Range(2, 4))
	e.Explode(lat.Position(lattice.Index{X: x, Y: y, Z: z}), radius, 1)
}
