package fluid

import "log/slog"

// Params holds the solver's tunable coefficients.
type Params struct {
	Gravity        float32 // world units per second squared, negative is down
	MaxFallSpeed   float32
	HydroLookahead int     // cells above summed into the hydrostatic head
	HydroScale     float32 // sideways push per unit of head and volume difference
	Nudge          float32 // sideways push per unit of volume difference
	Friction       float32 // horizontal damping per second
	Vorticity      float32 // confinement coefficient, 0 disables the pass
	Iterations     int     // Jacobi pressure iterations
	SettleEpsilon  float32
}

// Config controls the solver.
type Config struct {
	Params  Params
	Workers int // goroutines per pass, 1 runs passes inline
	Logger  *slog.Logger
}

// DefaultConfig returns the standard solver settings.
func DefaultConfig() Config {
	return Config{
		Params: Params{
			Gravity:        -9.8,
			MaxFallSpeed:   12,
			HydroLookahead: 8,
			HydroScale:     0.5,
			Nudge:          2,
			Friction:       0.6,
			Vorticity:      0.3,
			Iterations:     20,
			SettleEpsilon:  1e-4,
		},
		Workers: 4,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.Params.HydroLookahead < 0 {
		c.Params.HydroLookahead = 0
	}
	if c.Params.Iterations <= 0 {
		c.Params.Iterations = d.Params.Iterations
	}
	if c.Params.SettleEpsilon <= 0 {
		c.Params.SettleEpsilon = d.Params.SettleEpsilon
	}
	if c.Params.MaxFallSpeed <= 0 {
		c.Params.MaxFallSpeed = d.Params.MaxFallSpeed
	}
	if c.Params.Friction < 0 {
		c.Params.Friction = 0
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}
