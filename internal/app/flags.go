package app

import (
	"errors"
	"flag"
	"strings"
)

// Config represents the command-line parameters for the viewer.
type Config struct {
	Scene    string
	Scale    int
	TPS      int
	SimTPS   int
	Seed     int64
	HUDWidth int
	Set      map[string]string
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Scene: "quarry", Scale: 10, TPS: 60, SimTPS: 30, Seed: 42, HUDWidth: 260, Set: map[string]string{}}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Scene, "scene", c.Scene, "scene to run (quarry, reservoir)")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "frames per second")
	fs.IntVar(&c.SimTPS, "sim-tps", c.SimTPS, "simulation ticks per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for terrain generation")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "HUD panel width in pixels, 0 hides it")
	fs.Var(Overrides(c.Set), "set", "engine or generator override in key=value form (repeatable)")
}

// Overrides collects repeated key=value flags into a map. The headless
// tools share it with the viewer.
type Overrides map[string]string

func (f Overrides) String() string {
	return ""
}

func (f Overrides) Set(value string) error {
	k, v, ok := strings.Cut(value, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return errors.New("override must be key=value")
	}
	f[k] = strings.TrimSpace(v)
	return nil
}
