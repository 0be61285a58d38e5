// Package material holds the registry of terrain materials referenced by
// lattice nodes, debris bodies and the declarative terrain loader.
package material

import (
	"image/color"
	"sort"
	"strings"
)

// ID identifies a material. The zero value is reserved for "no material".
type ID uint16

// None marks the absence of a material.
const None ID = 0

// Built-in material identifiers.
const (
	Bedrock ID = iota + 1
	Rock
	Dirt
	Sand
	Clay
)

// Material describes the physical and display properties of a terrain type.
type Material struct {
	ID          ID
	Name        string
	Density     float32 // mass per unit volume
	Friction    float32
	Restitution float32
	Color       color.RGBA
}

// Registry resolves materials by ID and by name.
type Registry struct {
	byID   map[ID]Material
	byName map[string]ID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: map[ID]Material{}, byName: map[string]ID{}}
}

// Default returns a registry populated with the built-in materials.
func Default() *Registry {
	r := NewRegistry()
	r.Add(Material{ID: Bedrock, Name: "bedrock", Density: 3.0, Friction: 0.9, Restitution: 0.05, Color: color.RGBA{R: 40, G: 38, B: 44, A: 255}})
	r.Add(Material{ID: Rock, Name: "rock", Density: 2.6, Friction: 0.8, Restitution: 0.1, Color: color.RGBA{R: 128, G: 128, B: 132, A: 255}})
	r.Add(Material{ID: Dirt, Name: "dirt", Density: 1.5, Friction: 0.7, Restitution: 0.05, Color: color.RGBA{R: 110, G: 78, B: 46, A: 255}})
	r.Add(Material{ID: Sand, Name: "sand", Density: 1.6, Friction: 0.55, Restitution: 0.02, Color: color.RGBA{R: 214, G: 190, B: 128, A: 255}})
	r.Add(Material{ID: Clay, Name: "clay", Density: 1.8, Friction: 0.65, Restitution: 0.03, Color: color.RGBA{R: 170, G: 96, B: 70, A: 255}})
	return r
}

// Add registers m, replacing any material with the same ID. Names are
// matched case-insensitively. Adding None is ignored.
func (r *Registry) Add(m Material) {
	if m.ID == None {
		return
	}
	if prev, ok := r.byID[m.ID]; ok {
		delete(r.byName, strings.ToLower(prev.Name))
	}
	r.byID[m.ID] = m
	r.byName[strings.ToLower(m.Name)] = m.ID
}

// Get returns the material with the given ID.
func (r *Registry) Get(id ID) (Material, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Lookup resolves a material by name.
func (r *Registry) Lookup(name string) (Material, bool) {
	id, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Material{}, false
	}
	return r.byID[id], true
}

// Density returns the density for id, or fallback when id is unknown.
func (r *Registry) Density(id ID, fallback float32) float32 {
	if m, ok := r.byID[id]; ok {
		return m.Density
	}
	return fallback
}

// All returns the registered materials ordered by ID.
func (r *Registry) All() []Material {
	out := make([]Material, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
