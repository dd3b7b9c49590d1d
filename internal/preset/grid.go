package preset

import (
	"math"

	"sonicvoyager/internal/scene"
)

// gridTunnel is a pair of mirrored wireframe planes warped by the spectrum.
type gridTunnel struct {
	holdings
	floor, ceiling *scene.Node
	geo            *scene.Geometry
	mat            *scene.Material
}

func (p *gridTunnel) Name() Name { return Grid }

func (p *gridTunnel) Init() {
	if p.initialized() {
		return
	}
	group := p.begin("grid")
	p.geo = p.geometry(scene.PlaneGrid(100, 100, 50, 50))
	p.mat = p.material(scene.Material{Color: scene.Hex("#00ffff"), Wireframe: true, Opacity: 0.5})

	p.floor = p.scene.Mesh("grid-floor", p.geo, p.mat)
	p.floor.Rotation.X = -math.Pi / 2
	p.floor.Position.Y = -10
	group.Add(p.floor)

	// The ceiling shares geometry and material, so it mirrors every warp.
	p.ceiling = p.scene.Mesh("grid-ceiling", p.geo, p.mat)
	p.ceiling.Rotation.X = math.Pi / 2
	p.ceiling.Position.Y = 10
	group.Add(p.ceiling)
	p.commit()
}

func (p *gridTunnel) Update(f *Features) {
	if !p.initialized() {
		return
	}
	t := f.Elapsed
	n := len(f.Frequency)
	for i, v := range p.geo.Positions {
		z := math.Sin(v.X*0.2+t*2)*2 + math.Cos(v.Y*0.2+t)*2
		if n > 0 {
			idx := int(math.Abs(math.Floor(math.Mod(v.X+50, 100))*10)) % n
			z += float64(f.Frequency[idx]) / 255 * 5 * (f.Bass / 255)
		}
		p.geo.Positions[i].Z = z
	}
	p.group.Rotation.Z = math.Sin(t*0.1) * 0.1

	if f.IsBeat {
		p.mat.Color = hsl(p.rng.Float64(), 1, 0.5)
		return
	}
	h, s, l := p.mat.Color.Hsl()
	p.mat.Color = hsl(h/360, s, math.Max(0.5, l*0.95))
}

func (p *gridTunnel) Dispose() {
	p.release()
	p.floor, p.ceiling, p.geo, p.mat = nil, nil, nil, nil
}
