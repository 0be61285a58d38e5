package engine

import (
	"log/slog"
	"strconv"

	"rubble/internal/core"
	"rubble/internal/debris"
	"rubble/internal/fluid"
	"rubble/internal/lattice"
	"rubble/internal/mesh"
	"rubble/internal/physics"
)

// Config wires every component the engine owns.
type Config struct {
	Lattice   lattice.Config
	Fluid     fluid.Config
	Kinematic physics.KinematicConfig
	Debris    debris.Config
	Build     mesh.BuildOptions

	Seed int64

	Logger *slog.Logger
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Lattice:   lattice.DefaultConfig(),
		Fluid:     fluid.DefaultConfig(),
		Kinematic: physics.DefaultKinematicConfig(),
		Debris:    debris.DefaultConfig(),
		Build:     mesh.DefaultBuildOptions(),
		Seed:      1337,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Unknown keys and unparsable values are ignored.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	positive := func(key string, dst *int) {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
				*dst = parsed
			}
		}
	}
	float := func(key string, check func(float32) bool, dst ...*float32) {
		v, ok := cfg[key]
		if !ok {
			return
		}
		parsed, err := strconv.ParseFloat(v, 32)
		if err != nil || !check(float32(parsed)) {
			return
		}
		for _, d := range dst {
			*d = float32(parsed)
		}
	}
	above := func(v float32) bool { return v > 0 }
	nonNegative := func(v float32) bool { return v >= 0 }
	always := func(float32) bool { return true }

	positive("columns_x", &c.Lattice.ColumnsX)
	positive("columns_z", &c.Lattice.ColumnsZ)
	positive("column_size", &c.Lattice.ColumnSize)
	positive("height", &c.Lattice.Height)
	float("spacing", above, &c.Lattice.Spacing)
	float("cutoff", func(v float32) bool { return v > 0 && v <= 1 }, &c.Lattice.Cutoff)
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}

	positive("fluid_iterations", &c.Fluid.Params.Iterations)
	float("gravity", always, &c.Fluid.Params.Gravity, &c.Kinematic.Gravity)
	float("max_fall_speed", above, &c.Fluid.Params.MaxFallSpeed, &c.Kinematic.MaxFall)
	float("vorticity", nonNegative, &c.Fluid.Params.Vorticity)
	float("friction", nonNegative, &c.Fluid.Params.Friction)
	if v, ok := cfg["hydro_lookahead"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Fluid.Params.HydroLookahead = parsed
		}
	}
	float("settle_epsilon", above, &c.Fluid.Params.SettleEpsilon)
	positive("workers", &c.Fluid.Workers)

	float("weld_epsilon", above, &c.Build.WeldEpsilon)
	float("smooth_angle", func(v float32) bool { return v >= 0 && v <= 180 }, &c.Build.SmoothAngle)
	return c
}

// Parameters reports the configuration grouped for display.
func (c Config) Parameters() core.ParameterSnapshot {
	l := c.Lattice
	p := c.Fluid.Params
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Lattice",
			Params: []core.Parameter{
				core.IntParam("columns_x", "Columns X", l.ColumnsX),
				core.IntParam("columns_z", "Columns Z", l.ColumnsZ),
				core.IntParam("column_size", "Column size", l.ColumnSize),
				core.IntParam("height", "Height", l.Height),
				core.Float32Param("spacing", "Spacing", l.Spacing),
				core.Float32Param("cutoff", "Iso cutoff", l.Cutoff),
				core.Int64Param("seed", "Seed", c.Seed),
			},
		},
		{
			Name: "Fluid",
			Params: []core.Parameter{
				core.IntParam("fluid_iterations", "Pressure iterations", p.Iterations),
				core.Float32Param("gravity", "Gravity", p.Gravity),
				core.Float32Param("max_fall_speed", "Max fall speed", p.MaxFallSpeed),
				core.Float32Param("vorticity", "Vorticity", p.Vorticity),
				core.Float32Param("friction", "Friction", p.Friction),
				core.IntParam("hydro_lookahead", "Hydro lookahead", p.HydroLookahead),
				core.Float32Param("settle_epsilon", "Settle epsilon", p.SettleEpsilon),
				core.IntParam("workers", "Workers", c.Fluid.Workers),
			},
		},
		{
			Name: "Meshing",
			Params: []core.Parameter{
				core.Float32Param("weld_epsilon", "Weld epsilon", c.Build.WeldEpsilon),
				core.Float32Param("smooth_angle", "Smooth angle", c.Build.SmoothAngle),
			},
		},
	}}
}
