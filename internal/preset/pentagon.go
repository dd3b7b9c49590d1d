package preset

import (
	"sonicvoyager/internal/scene"
)

type pentagonShape struct {
	node  *scene.Node
	mat   *scene.Material
	speed float64
}

// pentagonalCore nests five wireframe icosahedra, inner shells reacting to
// treble and the outer shell to bass.
type pentagonalCore struct {
	holdings
	shapes []pentagonShape
}

func (p *pentagonalCore) Name() Name { return Pentagon }

func (p *pentagonalCore) Init() {
	if p.initialized() {
		return
	}
	group := p.begin("pentagon")
	p.shapes = make([]pentagonShape, 0, 5)
	for i := 0; i < 5; i++ {
		geo := p.geometry(scene.Icosahedron(2+float64(i)*3, 0))
		mat := p.material(scene.Material{Color: hsl(float64(i)/5, 1, 0.5), Wireframe: true, Opacity: 0.6})
		node := p.scene.Mesh("pentagon-shell", geo, mat)
		group.Add(node)
		p.shapes = append(p.shapes, pentagonShape{node: node, mat: mat, speed: float64(i+1) * 0.2})
	}
	p.commit()
}

func (p *pentagonalCore) Update(f *Features) {
	if !p.initialized() {
		return
	}
	p.group.Rotation.Y += 0.005
	p.group.Rotation.X += 0.002

	for i := range p.shapes {
		shape := &p.shapes[i]
		shape.node.Rotation.Z += shape.speed * 0.01
		shape.node.Rotation.Y -= shape.speed * 0.01

		var reaction float64
		switch {
		case i < 2:
			reaction = f.Treble / 255
		case i < 4:
			reaction = f.Mid / 255
		default:
			reaction = f.Bass / 255
		}
		target := 1 + reaction*2
		s := scene.Lerp(shape.node.Scale.X, target, 0.2)
		shape.node.Scale = scene.V(s, s, s)

		if f.IsBeat && i == 4 {
			shape.mat.Color = hsl(p.rng.Float64(), 1, 0.8)
		} else {
			shape.mat.Color = lerpColor(shape.mat.Color, hsl(float64(i)/5, 1, 0.5), 0.05)
		}
	}
}

func (p *pentagonalCore) Dispose() {
	p.release()
	p.shapes = nil
}
