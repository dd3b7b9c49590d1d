package preset

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"sonicvoyager/internal/scene"
)

const darkShards = 500

// darkMatter pulses a wireframe core inside a cloud of red shards.
type darkMatter struct {
	holdings
	sphere    *scene.Node
	sphereMat *scene.Material
	shards    *scene.Geometry
}

func (p *darkMatter) Name() Name { return Dark }

func (p *darkMatter) Init() {
	if p.initialized() {
		return
	}
	group := p.begin("dark")

	p.sphereMat = p.material(scene.Material{
		Color:     colorful.Color{},
		Emissive:  scene.Hex("#330000"),
		Wireframe: true,
		Lit:       true,
	})
	p.sphere = p.scene.Mesh("dark-core", p.geometry(scene.Icosahedron(10, 4)), p.sphereMat)
	group.Add(p.sphere)

	positions := make([]scene.Vec, darkShards)
	for i := range positions {
		r := 15 + p.rng.Float64()*20
		theta := p.rng.Float64() * 2 * math.Pi
		phi := p.rng.Float64() * math.Pi
		positions[i] = scene.V(r*math.Sin(phi)*math.Cos(theta), r*math.Sin(phi)*math.Sin(theta), r*math.Cos(phi))
	}
	p.shards = p.geometry(scene.Cloud(positions, nil))
	group.Add(p.scene.Points("dark-shards", p.shards, p.material(scene.Material{
		Color: scene.Hex("#ff0000"),
		Size:  0.5,
		Blend: scene.BlendAdditive,
	})))

	group.Add(p.scene.Light("dark-light", scene.Light{
		Kind:      scene.LightPoint,
		Color:     scene.Hex("#ff0000"),
		Intensity: 2,
		Distance:  50,
	}))
	p.commit()
}

func (p *darkMatter) Update(f *Features) {
	if !p.initialized() {
		return
	}
	s := 1 + (f.Bass/255)*0.5
	p.sphere.Scale = scene.V(s, s, s)
	p.group.Rotation.X += 0.005
	p.group.Rotation.Y += 0.01

	if f.IsBeat {
		p.sphereMat.Wireframe = !p.sphereMat.Wireframe
		p.sphereMat.Emissive = scene.Hex("#ff0000")
	} else {
		p.sphereMat.Wireframe = true
		p.sphereMat.Emissive = lerpColor(p.sphereMat.Emissive, scene.Hex("#110000"), 0.1)
	}

	if f.Treble > 150 {
		for i := range p.shards.Positions {
			pos := &p.shards.Positions[i]
			pos.X += signed(p.rng) * 0.5
			pos.Y += signed(p.rng) * 0.5
			pos.Z += signed(p.rng) * 0.5
		}
	}
}

func (p *darkMatter) Dispose() {
	p.release()
	p.sphere, p.sphereMat, p.shards = nil, nil, nil
}
