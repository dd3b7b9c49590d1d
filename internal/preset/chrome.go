package preset

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"sonicvoyager/internal/scene"
)

const (
	chromeRoadLines = 20
	chromePillars   = 20 // per side
	chromeParticles = 1000
)

// chromeCadence drives down an endless highway toward a billboard that
// shows the current track's artwork.
type chromeCadence struct {
	holdings
	floor     *scene.Node
	roadLines []*scene.Node
	pillars   []*scene.Node
	pillarMat *scene.Material
	billboard *scene.Node
	boardMat  *scene.Material
	frame     *scene.Node
	frameMat  *scene.Material
	particles *scene.Geometry
	artwork   image.Image
}

func (p *chromeCadence) Name() Name { return Chrome }

// SetArtwork shows img on the billboard. A nil image restores the blank
// board. The artwork survives Dispose and is re-applied on Init.
func (p *chromeCadence) SetArtwork(img image.Image) {
	p.artwork = img
	if p.boardMat != nil {
		p.boardMat.Texture = img
	}
}

func (p *chromeCadence) Init() {
	if p.initialized() {
		return
	}
	group := p.begin("chrome")

	floorGeo := scene.PlaneGrid(200, 1000, 50, 100)
	for i, v := range floorGeo.Positions {
		// Flat road down the middle, rough terrain either side.
		if math.Abs(v.X) > 20 {
			floorGeo.Positions[i].Z = p.rng.Float64() * 5
		}
	}
	p.floor = p.scene.Mesh("chrome-floor", p.geometry(floorGeo), p.material(scene.Material{
		Color:     scene.Hex("#111111"),
		Wireframe: true,
	}))
	p.floor.Rotation.X = -math.Pi / 2
	p.floor.Position.Y = -10
	group.Add(p.floor)

	lineGeo := p.geometry(scene.Box(2, 0.5, 10))
	lineMat := p.material(scene.Material{Color: scene.Hex("#ffffff")})
	p.roadLines = make([]*scene.Node, 0, chromeRoadLines)
	for i := 0; i < chromeRoadLines; i++ {
		n := p.scene.Mesh("chrome-road-line", lineGeo, lineMat)
		n.Position = scene.V(0, -9.8, float64(-i*50+50))
		group.Add(n)
		p.roadLines = append(p.roadLines, n)
	}

	pillarGeo := p.geometry(scene.Box(2, 10, 2))
	p.pillarMat = p.material(scene.Material{
		Color:    scene.Hex("#00f0ff"),
		Emissive: scaleColor(scene.Hex("#00f0ff"), 0.5),
		Lit:      true,
	})
	p.pillars = make([]*scene.Node, 0, chromePillars*2)
	for i := 0; i < chromePillars; i++ {
		z := float64(-i*40 + 100)
		for _, x := range []float64{-30, 30} {
			n := p.scene.Mesh("chrome-pillar", pillarGeo, p.pillarMat)
			n.Position = scene.V(x, -5, z)
			group.Add(n)
			p.pillars = append(p.pillars, n)
		}
	}

	p.boardMat = p.material(scene.Material{Color: scene.Hex("#ffffff"), Opacity: 0.9, Texture: p.artwork})
	p.billboard = p.scene.Mesh("chrome-billboard", p.geometry(scene.Quad(50, 50)), p.boardMat)
	p.billboard.Position = scene.V(0, 20, -60)
	group.Add(p.billboard)

	p.frameMat = p.material(scene.Material{Color: scene.Hex("#333333"), Lit: true})
	p.frame = p.scene.Mesh("chrome-frame", p.geometry(scene.Box(52, 52, 1)), p.frameMat)
	p.frame.Position = scene.V(0, 20, -60.6)
	group.Add(p.frame)

	group.Add(p.scene.Light("chrome-ambient", scene.Light{Kind: scene.LightAmbient, Color: scene.Hex("#222222"), Intensity: 1}))
	spot := p.scene.Light("chrome-spot", scene.Light{Kind: scene.LightPoint, Color: scene.Hex("#ffffff"), Intensity: 1})
	spot.Position = scene.V(0, 50, 0)
	group.Add(spot)

	positions := make([]scene.Vec, chromeParticles)
	for i := range positions {
		positions[i] = scene.V(signed(p.rng)*200, signed(p.rng)*100, p.rng.Float64()*200-100)
	}
	p.particles = p.geometry(scene.Cloud(positions, nil))
	group.Add(p.scene.Points("chrome-particles", p.particles, p.material(scene.Material{
		Color:   scene.Hex("#ffffff"),
		Size:    0.2,
		Opacity: 0.8,
	})))
	p.commit()
}

func (p *chromeCadence) Update(f *Features) {
	if !p.initialized() {
		return
	}
	t := f.Elapsed
	speed := 50 * (1 + f.Bass/255)

	for i := range p.particles.Positions {
		pos := &p.particles.Positions[i]
		pos.Z += speed * 0.5 * 0.1
		if pos.Z > 50 {
			pos.Z = -150
		}
	}

	for i, n := range p.roadLines {
		z := math.Mod(float64(-i*50+50)+t*speed, 1000)
		if z > 50 {
			z -= 1000
		}
		n.Position.Z = z
	}

	p.pillarMat.Color = hsl(math.Mod(t*0.1, 1), 1, 0.5)
	p.pillarMat.Emissive = scaleColor(p.pillarMat.Color, 0.5)
	for i := 0; i < chromePillars; i++ {
		z := math.Mod(float64(-i*40+100)+t*speed, 800)
		if z > 100 {
			z -= 800
		}
		scaleY := 1 + (f.Bass/255)*2*(math.Sin(float64(i)+t)*0.5+0.5)
		for side, x := range []float64{-30, 30} {
			n := p.pillars[i*2+side]
			n.Scale = scene.V(1, scaleY, 1)
			n.Position = scene.V(x, -5+scaleY*5, z)
		}
	}

	p.floor.Position.Z = math.Mod(t*speed*0.5, 20)

	p.billboard.Position.Y = 15 + math.Sin(t*0.5)*2
	p.frame.Position.Y = p.billboard.Position.Y
	p.billboard.Rotation.Y = math.Sin(t*0.3) * 0.1
	p.frame.Rotation.Y = p.billboard.Rotation.Y

	if f.IsBeat {
		p.frameMat.Emissive = scene.Hex("#444444")
	} else {
		p.frameMat.Emissive = colorful.Color{}
	}
}

func (p *chromeCadence) Dispose() {
	p.release()
	p.floor, p.roadLines, p.pillars, p.pillarMat = nil, nil, nil, nil
	p.billboard, p.boardMat, p.frame, p.frameMat, p.particles = nil, nil, nil, nil, nil
}

func scaleColor(c colorful.Color, k float64) colorful.Color {
	return colorful.Color{R: c.R * k, G: c.G * k, B: c.B * k}
}
