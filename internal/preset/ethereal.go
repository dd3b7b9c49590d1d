package preset

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"sonicvoyager/internal/scene"
)

const etherealParticles = 2000

// etherealAura is a shell of drifting particles whose swirl widens with
// bass.
type etherealAura struct {
	holdings
	cloud  *scene.Geometry
	mat    *scene.Material
	base   []scene.Vec
	offset []float64
}

func (p *etherealAura) Name() Name { return Ethereal }

func (p *etherealAura) Init() {
	if p.initialized() {
		return
	}
	group := p.begin("ethereal")
	p.base = make([]scene.Vec, etherealParticles)
	p.offset = make([]float64, etherealParticles)
	for i := range p.base {
		r := 10 + p.rng.Float64()*20
		theta := p.rng.Float64() * 2 * math.Pi
		phi := p.rng.Float64() * math.Pi
		p.base[i] = scene.V(r*math.Sin(phi)*math.Cos(theta), r*math.Sin(phi)*math.Sin(theta), r*math.Cos(phi))
		p.offset[i] = p.rng.Float64()
	}
	positions := make([]scene.Vec, etherealParticles)
	copy(positions, p.base)
	p.cloud = p.geometry(scene.Cloud(positions, make([]colorful.Color, etherealParticles)))
	p.mat = p.material(scene.Material{Size: 0.2, Blend: scene.BlendAdditive, VertexColors: true})
	group.Add(p.scene.Points("ethereal-particles", p.cloud, p.mat))
	p.commit()
}

var (
	etherealCool = colorful.Color{R: 0.6, G: 0.9, B: 1.0}
	etherealWarm = colorful.Color{R: 1.0, G: 0.6, B: 0.9}
)

func (p *etherealAura) Update(f *Features) {
	if !p.initialized() {
		return
	}
	t := f.Elapsed
	bass := f.Bass / 255
	for i, base := range p.base {
		r := p.offset[i]
		angle := t*(0.2+r*0.5) + base.Y*0.1
		p.cloud.Positions[i] = scene.V(
			base.X+math.Sin(angle)*(1+bass),
			base.Y+math.Cos(angle)*(1+bass),
			base.Z+math.Sin(t+r*10)*bass,
		)
		mix := math.Sin(t+base.X*0.1)*0.5 + 0.5
		alpha := 0.5 + 0.5*math.Sin(t*2+r*10)
		c := etherealCool.BlendRgb(etherealWarm, mix)
		p.cloud.Colors[i] = colorful.Color{R: c.R * alpha, G: c.G * alpha, B: c.B * alpha}
	}
	p.mat.Size = 0.2 * (1 + bass*1.25)
	p.group.Rotation.Y = t * 0.1
	p.group.Rotation.Z = math.Sin(t*0.2) * 0.1
}

func (p *etherealAura) Dispose() {
	p.release()
	p.cloud, p.mat, p.base, p.offset = nil, nil, nil, nil
}
