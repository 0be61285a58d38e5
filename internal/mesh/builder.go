package mesh

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"rubble/internal/material"
	"rubble/internal/mc"
)

// BuildOptions control welding and normal smoothing.
type BuildOptions struct {
	WeldEpsilon float32 // positions closer than this merge into one vertex
	SmoothAngle float32 // degrees; faces meeting at a sharper angle keep hard edges
}

// DefaultBuildOptions returns the options used for terrain and debris.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{WeldEpsilon: 1e-4, SmoothAngle: 60}
}

type weldKey [3]int64

type face struct {
	ids    [3]int
	normal mgl32.Vec3 // area weighted
	unit   mgl32.Vec3
	mat    material.ID
}

// Build welds, groups and shades a triangle soup. A soup without
// non-degenerate triangles yields nil.
func Build(tris []mc.Triangle, opts BuildOptions) *Mesh {
	if opts.WeldEpsilon <= 0 {
		opts.WeldEpsilon = DefaultBuildOptions().WeldEpsilon
	}
	if opts.SmoothAngle <= 0 {
		opts.SmoothAngle = DefaultBuildOptions().SmoothAngle
	}

	var positions []mgl32.Vec3
	var posMats []material.ID
	lookup := map[weldKey]int{}
	weld := func(v mc.Vertex) int {
		inv := 1 / float64(opts.WeldEpsilon)
		k := weldKey{
			int64(math.Round(float64(v.Pos[0]) * inv)),
			int64(math.Round(float64(v.Pos[1]) * inv)),
			int64(math.Round(float64(v.Pos[2]) * inv)),
		}
		if id, ok := lookup[k]; ok {
			return id
		}
		id := len(positions)
		lookup[k] = id
		positions = append(positions, v.Pos)
		posMats = append(posMats, v.Material)
		return id
	}

	faces := make([]face, 0, len(tris))
	for _, t := range tris {
		f := face{mat: t.Material}
		for i := range t.V {
			f.ids[i] = weld(t.V[i])
		}
		if f.ids[0] == f.ids[1] || f.ids[1] == f.ids[2] || f.ids[0] == f.ids[2] {
			continue
		}
		a, b, c := positions[f.ids[0]], positions[f.ids[1]], positions[f.ids[2]]
		f.normal = b.Sub(a).Cross(c.Sub(a))
		l := f.normal.Len()
		if l < 1e-12 {
			continue
		}
		f.unit = f.normal.Mul(1 / l)
		faces = append(faces, f)
	}
	if len(faces) == 0 {
		return nil
	}

	incident := make([][]int, len(positions))
	for fi, f := range faces {
		for _, id := range f.ids {
			incident[id] = append(incident[id], fi)
		}
	}

	order := make([]int, len(faces))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return faces[order[i]].mat < faces[order[j]].mat })

	cosLimit := float32(math.Cos(float64(mgl32.DegToRad(opts.SmoothAngle))))
	type vkey struct {
		id int
		n  mgl32.Vec3
	}
	out := &Mesh{}
	verts := map[vkey]uint32{}
	for _, fi := range order {
		f := faces[fi]
		if n := len(out.Groups); n == 0 || out.Groups[n-1].Material != f.mat {
			out.Groups = append(out.Groups, Group{Material: f.mat, Start: len(out.Indices)})
		}
		for _, id := range f.ids {
			var n mgl32.Vec3
			for _, other := range incident[id] {
				if faces[other].unit.Dot(f.unit) >= cosLimit {
					n = n.Add(faces[other].normal)
				}
			}
			n = n.Normalize()
			k := vkey{id: id, n: n}
			vi, ok := verts[k]
			if !ok {
				vi = uint32(len(out.Positions))
				verts[k] = vi
				out.Positions = append(out.Positions, positions[id])
				out.Normals = append(out.Normals, n)
				out.Materials = append(out.Materials, posMats[id])
			}
			out.Indices = append(out.Indices, vi)
		}
		out.Groups[len(out.Groups)-1].Count += 3
	}
	return out
}
