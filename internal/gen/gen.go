// Package gen produces declarative terrain from fractal simplex noise.
package gen

import (
	"strconv"

	"github.com/ojrac/opensimplex-go"

	"rubble/internal/core"
	"rubble/internal/lattice"
	pcore "rubble/pkg/core"
)

// Params shapes the generated terrain.
type Params struct {
	Octaves     int
	Lacunarity  float32
	Persistence float32
	Scale       float32 // nodes per noise unit for the first octave

	BaseHeight float32 // fraction of the lattice height
	Amplitude  float32 // nodes of relief above and below the base

	BedrockMin, BedrockMax int
	DirtDepth              int
	WaterLevel             int // nodes; 0 disables water
	SandBand               int // surfaces within this many nodes of the water are sand

	ClayScale     float32
	ClayThreshold float32 // 3D noise above this turns rock into clay

	Boulders int
}

// Config controls generation.
type Config struct {
	Seed   int64
	Params Params
}

// DefaultConfig returns rolling hills without water.
func DefaultConfig() Config {
	return Config{
		Seed: 1337,
		Params: Params{
			Octaves:       4,
			Lacunarity:    2,
			Persistence:   0.5,
			Scale:         24,
			BaseHeight:    0.4,
			Amplitude:     5,
			BedrockMin:    1,
			BedrockMax:    2,
			DirtDepth:     2,
			SandBand:      1,
			ClayScale:     6,
			ClayThreshold: 0.45,
			Boulders:      3,
		},
	}
}

// FromMap applies flag-style overrides.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["octaves"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Params.Octaves = parsed
		}
	}
	if v, ok := cfg["amplitude"]; ok {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil && parsed >= 0 {
			c.Params.Amplitude = float32(parsed)
		}
	}
	if v, ok := cfg["base_height"]; ok {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil && parsed > 0 && parsed < 1 {
			c.Params.BaseHeight = float32(parsed)
		}
	}
	if v, ok := cfg["water_level"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Params.WaterLevel = parsed
		}
	}
	if v, ok := cfg["boulders"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Params.Boulders = parsed
		}
	}
	return c
}

// Generate lays out strata over a lattice of the given node dimensions:
// a bedrock floor, rock with clay pockets, then dirt, or sand near the
// water line, with water filling every surface below the water level.
// Identical seeds give identical descriptions. Lattices under three nodes
// tall get an empty description.
func Generate(cfg Config, dims core.Dims) lattice.Description {
	var d lattice.Description
	if dims.Y < 3 {
		return d
	}
	p := cfg.Params
	if p.Octaves <= 0 {
		p.Octaves = 1
	}
	if p.Scale <= 0 {
		p.Scale = 1
	}
	if p.ClayScale <= 0 {
		p.ClayScale = 1
	}
	noise := opensimplex.New32(cfg.Seed)
	rng := pcore.NewRNG(cfg.Seed)
	top := dims.Y - 1

	heights := make([]int, dims.X*dims.Z)
	for z := 0; z < dims.Z; z++ {
		for x := 0; x < dims.X; x++ {
			bedrock := min(rng.Range(p.BedrockMin, p.BedrockMax), top)
			if bedrock < 1 {
				bedrock = 1
			}
			h := int(p.BaseHeight*float32(dims.Y) + fractal(noise, x, z, p)*p.Amplitude)
			h = max(bedrock+1, min(h, top))
			heights[z*dims.X+x] = h

			d.Add(x, z, "bedrock", 0, bedrock)
			soil := max(bedrock, h-p.DirtDepth)
			if soil > bedrock {
				d.Add(x, z, "rock", bedrock, soil)
				clayPockets(&d, noise, x, z, bedrock, soil, p)
			}
			surface := "dirt"
			if p.WaterLevel > 0 && h <= p.WaterLevel+p.SandBand {
				surface = "sand"
			}
			if h > soil {
				d.Add(x, z, surface, soil, h)
			}
			if p.WaterLevel > 0 && h < p.WaterLevel {
				d.Add(x, z, lattice.WaterMaterial, h, min(p.WaterLevel, dims.Y))
			}
		}
	}

	for i := 0; i < p.Boulders; i++ {
		x, z := rng.IntN(dims.X), rng.IntN(dims.Z)
		h := heights[z*dims.X+x]
		size := rng.Range(1, 2)
		if h+size > dims.Y {
			continue
		}
		d.Add(x, z, "rock", h, h+size)
	}
	return d
}

// fractal sums octaves of 2D noise, clamped to [-1, 1].
func fractal(noise opensimplex.Noise32, x, z int, p Params) float32 {
	x1, z1 := float32(x), float32(z)
	amp, norm := float32(1), float32(0)
	var v float32
	for i := 0; i < p.Octaves; i++ {
		v += noise.Eval2(x1/p.Scale, z1/p.Scale) * amp
		norm += amp
		x1 *= p.Lacunarity
		z1 *= p.Lacunarity
		amp *= p.Persistence
	}
	if norm > 0 {
		v /= norm
	}
	return max(-1, min(1, v))
}

// clayPockets adds one clay layer per run of nodes in [lo, hi) where the 3D
// noise exceeds the threshold.
func clayPockets(d *lattice.Description, noise opensimplex.Noise32, x, z, lo, hi int, p Params) {
	start := -1
	for y := lo; y <= hi; y++ {
		in := y < hi && noise.Eval3(float32(x)/p.ClayScale, float32(y)/p.ClayScale, float32(z)/p.ClayScale) > p.ClayThreshold
		switch {
		case in && start < 0:
			start = y
		case !in && start >= 0:
			d.Add(x, z, "clay", start, y)
			start = -1
		}
	}
}
