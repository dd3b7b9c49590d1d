package preset

import (
	"math/rand/v2"

	"sonicvoyager/internal/scene"
)

// holdings tracks everything a preset allocated so Dispose can release it
// and Footprint can report it.
type holdings struct {
	scene *scene.Scene
	rng   *rand.Rand

	group      *scene.Node
	geometries []*scene.Geometry
	materials  []*scene.Material
	ownsFog    bool
}

func (h *holdings) initialized() bool { return h.group != nil }

// begin creates the preset's root group. Callers attach it with commit once
// the subgraph is built.
func (h *holdings) begin(name string) *scene.Node {
	h.group = h.scene.Group(name)
	return h.group
}

func (h *holdings) commit() { h.scene.Add(h.group) }

func (h *holdings) geometry(g scene.Geometry) *scene.Geometry {
	geo := h.scene.NewGeometry(g)
	h.geometries = append(h.geometries, geo)
	return geo
}

func (h *holdings) material(m scene.Material) *scene.Material {
	mat := h.scene.NewMaterial(m)
	h.materials = append(h.materials, mat)
	return mat
}

func (h *holdings) setFog(f scene.Fog) {
	h.scene.Fog = &f
	h.ownsFog = true
}

func (h *holdings) release() {
	if h.group != nil {
		h.scene.Remove(h.group)
		h.group = nil
	}
	for _, g := range h.geometries {
		g.Dispose()
	}
	for _, m := range h.materials {
		m.Dispose()
	}
	h.geometries, h.materials = nil, nil
	if h.ownsFog {
		h.scene.Fog = nil
		h.ownsFog = false
	}
}

func (h *holdings) Footprint() int {
	n := len(h.geometries) + len(h.materials)
	if h.group != nil {
		n += countTree(h.group)
	}
	if h.ownsFog {
		n++
	}
	return n
}

func countTree(n *scene.Node) int {
	total := 1
	for _, c := range n.Children() {
		total += countTree(c)
	}
	return total
}
