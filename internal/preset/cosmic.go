package preset

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"sonicvoyager/internal/scene"
)

const (
	cosmicStars   = 3000
	cosmicNebulae = 10
)

// cosmicVoyage flies through a twinkling starfield past soft nebula
// billboards.
type cosmicVoyage struct {
	holdings
	stars    *scene.Geometry
	nebulae  []*scene.Node
	cloudMat *scene.Material
}

func (p *cosmicVoyage) Name() Name { return Cosmic }

func (p *cosmicVoyage) Init() {
	if p.initialized() {
		return
	}
	group := p.begin("cosmic")

	positions := make([]scene.Vec, cosmicStars)
	colors := make([]colorful.Color, cosmicStars)
	for i := range positions {
		positions[i] = scene.V(signed(p.rng)*100, signed(p.rng)*100, signed(p.rng)*100)
		colors[i] = colorful.Color{R: 1, G: 1, B: 1}
	}
	p.stars = p.geometry(scene.Cloud(positions, colors))
	starMat := p.material(scene.Material{
		Color:        scene.Hex("#ffffff"),
		Size:         0.3,
		Blend:        scene.BlendAdditive,
		VertexColors: true,
	})
	group.Add(p.scene.Points("cosmic-stars", p.stars, starMat))

	// All clouds share one material, as they pulse together.
	p.cloudMat = p.material(scene.Material{
		Color:   scene.Hex("#8800ff"),
		Opacity: 0.1,
		Blend:   scene.BlendAdditive,
		Texture: nebulaTexture(128),
		Tint:    true,
	})
	p.nebulae = make([]*scene.Node, 0, cosmicNebulae)
	for i := 0; i < cosmicNebulae; i++ {
		cloud := p.scene.Mesh("cosmic-nebula", p.geometry(scene.Quad(20, 20)), p.cloudMat)
		cloud.Position = scene.V(signed(p.rng)*40, signed(p.rng)*40, signed(p.rng)*40)
		cloud.Rotation = faceOrigin(cloud.Position)
		cloud.Rotation.Z = p.rng.Float64() * math.Pi
		group.Add(cloud)
		p.nebulae = append(p.nebulae, cloud)
	}
	p.commit()
}

func (p *cosmicVoyage) Update(f *Features) {
	if !p.initialized() {
		return
	}
	t := f.Elapsed
	speed := 0.1 + (f.Bass/255)*0.5
	for i := range p.stars.Positions {
		pos := &p.stars.Positions[i]
		pos.Z += speed
		if pos.Z > 30 {
			pos.Z = -70
		}
		twinkle := 0.5 + 0.5*math.Sin(t*5+pos.X)
		p.stars.Colors[i] = colorful.Color{R: twinkle, G: twinkle, B: twinkle}
	}

	for i, cloud := range p.nebulae {
		if i%2 == 0 {
			cloud.Rotation.Z += 0.002
		} else {
			cloud.Rotation.Z -= 0.002
		}
	}
	p.cloudMat.Opacity = 0.1 + (f.Mid/255)*0.2
	if f.IsBeat {
		p.cloudMat.Color = hsl(0.6+p.rng.Float64()*0.2, 1, 0.6)
	} else {
		p.cloudMat.Color = lerpColor(p.cloudMat.Color, scene.Hex("#4400ff"), 0.05)
	}
	p.group.Rotation.Z = math.Sin(t*0.2) * 0.1
}

func (p *cosmicVoyage) Dispose() {
	p.release()
	p.stars, p.nebulae, p.cloudMat = nil, nil, nil
}

// nebulaTexture draws a soft white radial blob.
func nebulaTexture(size int) image.Image {
	dc := gg.NewContext(size, size)
	half := float64(size) / 2
	grad := gg.NewRadialGradient(half, half, 0, half, half, half)
	grad.AddColorStop(0, color.NRGBA{255, 255, 255, 255})
	grad.AddColorStop(0.5, color.NRGBA{255, 255, 255, 51})
	grad.AddColorStop(1, color.NRGBA{0, 0, 0, 0})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()
	return dc.Image()
}

// faceOrigin returns Euler angles that turn a quad's +Z normal toward the
// origin from pos.
func faceOrigin(pos scene.Vec) scene.Vec {
	d := r3.Scale(-1, pos)
	if r3.Norm(d) == 0 {
		return scene.Vec{}
	}
	d = r3.Unit(d)
	return scene.V(-math.Asin(d.Y), math.Atan2(d.X, d.Z), 0)
}
