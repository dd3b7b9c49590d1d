package preset

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"sonicvoyager/internal/scene"
)

type neonBuilding struct {
	node      *scene.Node
	baseScale float64
}

// neonCity scrolls a retro grid and wireframe skyline toward a pulsing sun.
type neonCity struct {
	holdings
	grid      *scene.Node
	sun       *scene.Node
	sunMat    *scene.Material
	buildings []neonBuilding
}

func (p *neonCity) Name() Name { return Neon }

func (p *neonCity) Init() {
	if p.initialized() {
		return
	}
	group := p.begin("neon")

	p.grid = p.scene.Lines("neon-grid", p.geometry(gridHelper(200, 40, scene.Hex("#ff00ff"), scene.Hex("#00ffff"))),
		p.material(scene.Material{VertexColors: true}))
	p.grid.Position = scene.V(0, -10, -50)
	p.grid.Scale.Z = 5
	group.Add(p.grid)

	p.sunMat = p.material(scene.Material{Color: scene.Hex("#ffaa00")})
	p.sun = p.scene.Mesh("neon-sun", p.geometry(scene.Circle(20, 32)), p.sunMat)
	p.sun.Position = scene.V(0, 10, -100)
	group.Add(p.sun)

	boxGeo := p.geometry(scene.Box(5, 20, 5))
	lineMat := p.material(scene.Material{Color: scene.Hex("#00ffaa"), Opacity: 0.5})
	p.buildings = make([]neonBuilding, 0, 20)
	for i := 0; i < 20; i++ {
		x := signed(p.rng) * 150
		// Keep the centre clear.
		if math.Abs(x) < 20 {
			continue
		}
		z := signed(p.rng)*200 - 50
		b := p.scene.Lines("neon-building", boxGeo, lineMat)
		b.Position = scene.V(x, -10+p.rng.Float64()*5, z)
		b.Scale.Y = 0.5 + p.rng.Float64()*2
		group.Add(b)
		p.buildings = append(p.buildings, neonBuilding{node: b, baseScale: b.Scale.Y})
	}
	p.commit()
	p.setFog(scene.Fog{Color: colorful.Color{}, Density: 0.015})
}

func (p *neonCity) Update(f *Features) {
	if !p.initialized() {
		return
	}
	advance := 0.5 + f.Bass/255
	p.grid.Position.Z += advance
	if p.grid.Position.Z > 0 {
		p.grid.Position.Z = -50
	}

	s := 1 + (f.Bass/255)*0.2
	p.sun.Scale = scene.V(s, s, 1)
	if f.IsBeat {
		p.sunMat.Color = scene.Hex("#ff00ff")
	} else {
		p.sunMat.Color = lerpColor(p.sunMat.Color, scene.Hex("#ffaa00"), 0.1)
	}

	n := len(f.Frequency)
	for i := range p.buildings {
		b := &p.buildings[i]
		var val float64
		if n > 0 {
			idx := int(float64(i) / float64(len(p.buildings)) * float64(n) * 0.5)
			val = float64(f.Frequency[idx]) / 255
		}
		b.node.Scale.Y = scene.Lerp(b.node.Scale.Y, b.baseScale+val*3, 0.1)
		b.node.Position.Z += advance
		if b.node.Position.Z > 50 {
			b.node.Position.Z = -150
			b.node.Position.X = signed(p.rng) * 150
			if math.Abs(b.node.Position.X) < 20 {
				b.node.Position.X += 40
			}
		}
	}
	p.group.Rotation.Z = math.Sin(f.Elapsed*0.5) * 0.02
}

func (p *neonCity) Dispose() {
	p.release()
	p.grid, p.sun, p.sunMat, p.buildings = nil, nil, nil, nil
}

// gridHelper builds a size×size line grid on the XZ plane with divisions
// cells per side. The two centre lines use center, the rest use lines.
func gridHelper(size float64, divisions int, center, lines colorful.Color) scene.Geometry {
	var g scene.Geometry
	half := size / 2
	step := size / float64(divisions)
	for i := 0; i <= divisions; i++ {
		k := -half + float64(i)*step
		c := lines
		if i == divisions/2 {
			c = center
		}
		base := len(g.Positions)
		g.Positions = append(g.Positions,
			scene.V(-half, 0, k), scene.V(half, 0, k),
			scene.V(k, 0, -half), scene.V(k, 0, half),
		)
		g.Colors = append(g.Colors, c, c, c, c)
		g.Edges = append(g.Edges, [2]int{base, base + 1}, [2]int{base + 2, base + 3})
	}
	return g
}
