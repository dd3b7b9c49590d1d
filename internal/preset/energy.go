package preset

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"sonicvoyager/internal/scene"
)

const energyRings = 10

type energyRing struct {
	node *scene.Node
	mat  *scene.Material
}

// energyPulse sends tori expanding outward, each tinted by one band.
type energyPulse struct {
	holdings
	rings []energyRing
}

func (p *energyPulse) Name() Name { return Energy }

func (p *energyPulse) Init() {
	if p.initialized() {
		return
	}
	group := p.begin("energy")
	geo := p.geometry(scene.Torus(1, 0.05, 16, 100))
	p.rings = make([]energyRing, 0, energyRings)
	for i := 0; i < energyRings; i++ {
		mat := p.material(scene.Material{Color: scene.Hex("#00ff00"), Opacity: 0.5})
		node := p.scene.Mesh("energy-ring", geo, mat)
		node.Scale = scene.V(1+float64(i)*2, 1+float64(i)*2, 1)
		group.Add(node)
		p.rings = append(p.rings, energyRing{node: node, mat: mat})
	}
	p.commit()
}

func (p *energyPulse) Update(f *Features) {
	if !p.initialized() {
		return
	}
	for i, ring := range p.rings {
		s := ring.node.Scale.X + 0.05 + (f.Bass/255)*0.1
		if s > 30 {
			s = 1
		}
		ring.node.Scale = scene.V(s, s, 1)
		ring.mat.Opacity = 1 - s/30

		switch i % 3 {
		case 0:
			ring.mat.Color = colorful.Color{R: f.Bass / 255}
		case 1:
			ring.mat.Color = colorful.Color{G: f.Mid / 255}
		default:
			ring.mat.Color = colorful.Color{B: f.Treble / 255}
		}
	}
	p.group.Rotation.X = math.Sin(f.Elapsed*0.5) * 0.5
	p.group.Rotation.Y = f.Elapsed * 0.2
}

func (p *energyPulse) Dispose() {
	p.release()
	p.rings = nil
}
