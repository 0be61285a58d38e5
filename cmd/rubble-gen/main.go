// Command rubble-gen generates terrain from a seed and manages the levels
// kept in a level store.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"rubble/internal/app"
	"rubble/internal/engine"
	"rubble/internal/gen"
	"rubble/internal/store"
)

func main() {
	dbPath := flag.String("db", "levels", "level store directory")
	name := flag.String("name", "", "level name (default seed-<seed>)")
	seed := flag.Int64("seed", 1337, "terrain seed")
	list := flag.Bool("list", false, "list stored levels and exit")
	del := flag.String("delete", "", "delete the named level and exit")
	set := app.Overrides{}
	flag.Var(set, "set", "engine or generator override in key=value form (repeatable)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	db, err := store.Open(*dbPath, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	switch {
	case *list:
		names, err := db.List()
		if err != nil {
			log.Fatalf("%v", err)
		}
		for _, n := range names {
			h, err := db.Header(n)
			if err != nil {
				fmt.Printf("%-24s (unreadable: %v)\n", n, err)
				continue
			}
			fmt.Printf("%-24s %dx%d columns of %d, height %d\n", n, h.ColumnsX, h.ColumnsZ, h.ColumnSize, h.Height)
		}
		return
	case *del != "":
		if err := db.Delete(*del); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	cfg := engine.FromMap(set)
	cfg.Logger = logger
	gc := gen.FromMap(set)
	gc.Seed = *seed
	if *name == "" {
		*name = fmt.Sprintf("seed-%d", *seed)
	}

	e := engine.New(cfg, nil, nil)
	if err := e.Load(gen.Generate(gc, e.Lattice().Dims())); err != nil {
		log.Fatalf("%v", err)
	}
	if err := db.SaveLattice(*name, e.Lattice()); err != nil {
		log.Fatalf("%v", err)
	}
	logger.Info("level saved", "name", *name, "seed", *seed, "solid", e.Lattice().CountSolid())
}
