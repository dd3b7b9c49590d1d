package preset

import (
	"math"

	"sonicvoyager/internal/scene"
)

const waveRings = 32

type waveRing struct {
	node *scene.Node
	mat  *scene.Material
}

// circularWave stacks concentric rings, inner rings driven by low bins and
// outer rings by high bins.
type circularWave struct {
	holdings
	rings []waveRing
}

func (p *circularWave) Name() Name { return Wave }

func (p *circularWave) Init() {
	if p.initialized() {
		return
	}
	group := p.begin("wave")
	p.rings = make([]waveRing, 0, waveRings)
	for i := 0; i < waveRings; i++ {
		geo := p.geometry(scene.RingLine(float64(i)*0.5+1.05, 64))
		mat := p.material(scene.Material{Color: scene.Hex("#ffffff"), Opacity: 0.3})
		node := p.scene.Lines("wave-ring", geo, mat)
		group.Add(node)
		p.rings = append(p.rings, waveRing{node: node, mat: mat})
	}
	p.commit()
}

func (p *circularWave) Update(f *Features) {
	if !p.initialized() {
		return
	}
	t := f.Elapsed
	bin := len(f.Frequency) / waveRings
	for i, ring := range p.rings {
		var val float64
		if bin > 0 {
			sum := 0
			for _, v := range f.Frequency[i*bin : (i+1)*bin] {
				sum += int(v)
			}
			val = float64(sum) / float64(bin) / 255
		}

		dir := 0.2
		if i%2 != 0 {
			dir = -0.2
		}
		ring.node.Position.Z = val * 5
		ring.node.Rotation.Z = t * dir
		ring.mat.Color = hsl(float64(i)/waveRings+t*0.1, 1, 0.5+val*0.5)
		ring.mat.Opacity = math.Min(1, 0.1+val)

		if f.IsBeat && i < 5 {
			s := 1 + val*0.5
			ring.node.Scale = scene.V(s, s, s)
		} else {
			s := scene.Lerp(ring.node.Scale.X, 1, 0.1)
			ring.node.Scale = scene.V(s, s, s)
		}
	}
	p.group.Rotation.X = math.Sin(t*0.5) * 0.2
	p.group.Rotation.Y = math.Cos(t*0.3) * 0.2
}

func (p *circularWave) Dispose() {
	p.release()
	p.rings = nil
}
