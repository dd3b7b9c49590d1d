package scene

import (
	"image"
	"image/color"
	"math"
	"slices"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"gonum.org/v1/gonum/spatial/r3"
)

type primKind int

const (
	primTriangle primKind = iota
	primLine
	primPoint
	primTexture
)

type screenPt struct{ x, y, depth float64 }

type primitive struct {
	kind   primKind
	depth  float64
	pts    [3]screenPt
	col    colorful.Color
	alpha  float64
	blend  Blend
	radius float64
	tex    image.Image
}

type worldLight struct {
	light Light
	pos   Vec
}

// Renderer rasterizes a Scene with the painter's algorithm: every
// primitive is projected, sorted far to near and composited in order.
// Triangles with a vertex behind the near plane are skipped; lines are
// clipped against it.
type Renderer struct {
	Width  int
	Height int

	frame  *image.RGBA
	prims  []primitive
	lights []worldLight
}

// NewRenderer returns a renderer for a w×h surface.
func NewRenderer(w, h int) *Renderer {
	return &Renderer{Width: w, Height: h, frame: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Frame returns the most recently rendered image.
func (r *Renderer) Frame() *image.RGBA { return r.frame }

// Render draws s from cam into the renderer's frame and returns it. The
// returned image is reused by the next call.
func (r *Renderer) Render(s *Scene, cam *Camera) *image.RGBA {
	if r.frame == nil || r.frame.Rect.Dx() != r.Width || r.frame.Rect.Dy() != r.Height {
		r.frame = image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	}
	fillRGBA(r.frame, s.Background)

	r.prims = r.prims[:0]
	r.lights = r.lights[:0]
	collectLights(s.root, Identity(), &r.lights)

	view := cam.View()
	ctx := projection{
		cx:    float64(r.Width) / 2,
		cy:    float64(r.Height) / 2,
		focal: cam.focal(r.Height),
		near:  cam.Near,
		far:   cam.Far,
		fog:   s.Fog,
	}
	r.collect(s.root, Identity(), view, &ctx)

	slices.SortStableFunc(r.prims, func(a, b primitive) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	})
	for i := range r.prims {
		r.draw(&r.prims[i])
	}
	return r.frame
}

type projection struct {
	cx, cy, focal float64
	near, far     float64
	fog           *Fog
}

func (p *projection) project(v Vec) screenPt {
	d := -v.Z
	return screenPt{x: p.cx + p.focal*v.X/d, y: p.cy - p.focal*v.Y/d, depth: d}
}

func (p *projection) fogged(c colorful.Color, depth float64, skip bool) colorful.Color {
	if p.fog == nil || skip || p.fog.Density <= 0 {
		return c
	}
	f := 1 - math.Exp(-p.fog.Density*p.fog.Density*depth*depth)
	return colorful.Color{
		R: Lerp(c.R, p.fog.Color.R, f),
		G: Lerp(c.G, p.fog.Color.G, f),
		B: Lerp(c.B, p.fog.Color.B, f),
	}
}

func collectLights(n *Node, parent Mat4, out *[]worldLight) {
	if !n.Visible {
		return
	}
	world := parent.Mul(Compose(n.Position, n.Rotation, n.Scale))
	if n.Kind == KindLight && n.Light != nil {
		*out = append(*out, worldLight{light: *n.Light, pos: world.Apply(V(0, 0, 0))})
	}
	for _, c := range n.children {
		collectLights(c, world, out)
	}
}

func (r *Renderer) collect(n *Node, parent, view Mat4, p *projection) {
	if !n.Visible {
		return
	}
	world := parent.Mul(Compose(n.Position, n.Rotation, n.Scale))
	if g, m := n.Geometry, n.Material; g != nil && m != nil && !g.disposed && !m.disposed {
		mv := view.Mul(world)
		switch {
		case n.Kind == KindPoints:
			r.collectPoints(g, m, mv, p)
		case n.Kind == KindLines || (n.Kind == KindMesh && m.Wireframe):
			r.collectLines(g, m, mv, p)
		case n.Kind == KindMesh && m.Texture != nil && len(g.UV) >= 3:
			r.collectTexture(g, m, mv, p)
		case n.Kind == KindMesh:
			r.collectFaces(g, m, world, mv, p)
		}
	}
	for _, c := range n.children {
		r.collect(c, world, view, p)
	}
}

func vertexColor(g *Geometry, m *Material, idx ...int) colorful.Color {
	if !m.VertexColors || len(g.Colors) == 0 {
		return m.Color
	}
	var sum colorful.Color
	for _, i := range idx {
		c := g.Colors[i%len(g.Colors)]
		sum.R += c.R
		sum.G += c.G
		sum.B += c.B
	}
	n := float64(len(idx))
	return colorful.Color{R: sum.R / n, G: sum.G / n, B: sum.B / n}
}

func (r *Renderer) collectPoints(g *Geometry, m *Material, mv Mat4, p *projection) {
	size := m.Size
	if size <= 0 {
		size = 1
	}
	for i, v := range g.Positions {
		cv := mv.Apply(v)
		if -cv.Z < p.near || -cv.Z > p.far {
			continue
		}
		sp := p.project(cv)
		r.prims = append(r.prims, primitive{
			kind:   primPoint,
			depth:  sp.depth,
			pts:    [3]screenPt{sp},
			col:    p.fogged(vertexColor(g, m, i), sp.depth, m.NoFog),
			alpha:  m.Opacity,
			blend:  m.Blend,
			radius: math.Max(0.5, size*p.focal/sp.depth/2),
		})
	}
}

func (r *Renderer) collectLines(g *Geometry, m *Material, mv Mat4, p *projection) {
	for _, e := range g.Edges {
		a, b := mv.Apply(g.Positions[e[0]]), mv.Apply(g.Positions[e[1]])
		da, db := -a.Z, -b.Z
		if da < p.near && db < p.near {
			continue
		}
		if da < p.near {
			a = clipNear(b, a, p.near)
		} else if db < p.near {
			b = clipNear(a, b, p.near)
		}
		pa, pb := p.project(a), p.project(b)
		depth := (pa.depth + pb.depth) / 2
		if depth > p.far {
			continue
		}
		r.prims = append(r.prims, primitive{
			kind:  primLine,
			depth: depth,
			pts:   [3]screenPt{pa, pb},
			col:   p.fogged(addColor(vertexColor(g, m, e[0], e[1]), m.Emissive), depth, m.NoFog),
			alpha: m.Opacity,
			blend: m.Blend,
		})
	}
}

// clipNear moves out (behind the near plane) along in→out until it sits
// on the plane.
func clipNear(in, out Vec, near float64) Vec {
	t := (-in.Z - near) / ((-in.Z) - (-out.Z))
	return r3.Add(in, r3.Scale(t, r3.Sub(out, in)))
}

func (r *Renderer) collectFaces(g *Geometry, m *Material, world, mv Mat4, p *projection) {
	for _, f := range g.Faces {
		var cam [3]Vec
		visible := true
		for k := 0; k < 3; k++ {
			cam[k] = mv.Apply(g.Positions[f[k]])
			if -cam[k].Z < p.near {
				visible = false
			}
		}
		if !visible {
			continue
		}
		var pts [3]screenPt
		for k := range cam {
			pts[k] = p.project(cam[k])
		}
		depth := (pts[0].depth + pts[1].depth + pts[2].depth) / 3
		if depth > p.far {
			continue
		}
		col := vertexColor(g, m, f[0], f[1], f[2])
		if m.Lit {
			col = r.shade(col, g, f, world)
		}
		col = addColor(col, m.Emissive)
		r.prims = append(r.prims, primitive{
			kind:  primTriangle,
			depth: depth,
			pts:   pts,
			col:   p.fogged(col, depth, m.NoFog),
			alpha: m.Opacity,
			blend: m.Blend,
		})
	}
}

func (r *Renderer) shade(base colorful.Color, g *Geometry, f [3]int, world Mat4) colorful.Color {
	a := world.Apply(g.Positions[f[0]])
	b := world.Apply(g.Positions[f[1]])
	c := world.Apply(g.Positions[f[2]])
	normal := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if r3.Norm(normal) == 0 {
		return base
	}
	normal = r3.Unit(normal)
	center := r3.Scale(1.0/3, r3.Add(r3.Add(a, b), c))

	var lr, lg, lb float64
	for _, wl := range r.lights {
		l := wl.light
		k := l.Intensity
		if l.Kind == LightPoint {
			dir := r3.Sub(wl.pos, center)
			dist := r3.Norm(dir)
			if dist == 0 {
				continue
			}
			// Faces are double-sided.
			k *= math.Abs(r3.Dot(normal, r3.Scale(1/dist, dir)))
			if l.Distance > 0 {
				k *= math.Max(0, 1-dist/l.Distance)
			}
		}
		lr += l.Color.R * k
		lg += l.Color.G * k
		lb += l.Color.B * k
	}
	return colorful.Color{R: base.R * lr, G: base.G * lg, B: base.B * lb}
}

func (r *Renderer) collectTexture(g *Geometry, m *Material, mv Mat4, p *projection) {
	var pts [3]screenPt
	for k := 0; k < 3; k++ {
		cv := mv.Apply(g.Positions[k])
		if -cv.Z < p.near {
			return
		}
		pts[k] = p.project(cv)
	}
	depth := (pts[0].depth + pts[1].depth + pts[2].depth) / 3
	r.prims = append(r.prims, primitive{
		kind:  primTexture,
		depth: depth,
		pts:   pts,
		alpha: m.Opacity,
		tex:   m.texture(),
	})
}

func (r *Renderer) draw(pr *primitive) {
	c := pr.col.Clamped()
	switch pr.kind {
	case primTriangle:
		r.fillTriangle(pr.pts, c, pr.alpha, pr.blend)
	case primLine:
		r.line(pr.pts[0], pr.pts[1], c, pr.alpha, pr.blend)
	case primPoint:
		r.splat(pr.pts[0], pr.radius, c, pr.alpha, pr.blend)
	case primTexture:
		r.texture(pr)
	}
}

func (r *Renderer) blendPixel(x, y int, c colorful.Color, alpha float64, blend Blend) {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return
	}
	i := r.frame.PixOffset(x, y)
	px := r.frame.Pix[i : i+4 : i+4]
	src := [3]float64{c.R * 255, c.G * 255, c.B * 255}
	for k := 0; k < 3; k++ {
		dst := float64(px[k])
		var v float64
		if blend == BlendAdditive {
			v = dst + src[k]*alpha
		} else {
			v = dst + (src[k]-dst)*alpha
		}
		px[k] = clampByte(v)
	}
	px[3] = 255
}

func (r *Renderer) fillTriangle(p [3]screenPt, c colorful.Color, alpha float64, blend Blend) {
	area := edge(p[0], p[1], p[2].x, p[2].y)
	if area == 0 {
		return
	}
	minX := int(math.Floor(min(p[0].x, p[1].x, p[2].x)))
	maxX := int(math.Ceil(max(p[0].x, p[1].x, p[2].x)))
	minY := int(math.Floor(min(p[0].y, p[1].y, p[2].y)))
	maxY := int(math.Ceil(max(p[0].y, p[1].y, p[2].y)))
	minX, minY = max(minX, 0), max(minY, 0)
	maxX, maxY = min(maxX, r.Width-1), min(maxY, r.Height-1)
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := edge(p[1], p[2], px, py)
			w1 := edge(p[2], p[0], px, py)
			w2 := edge(p[0], p[1], px, py)
			if area > 0 && (w0 < 0 || w1 < 0 || w2 < 0) {
				continue
			}
			if area < 0 && (w0 > 0 || w1 > 0 || w2 > 0) {
				continue
			}
			r.blendPixel(x, y, c, alpha, blend)
		}
	}
}

func edge(a, b screenPt, x, y float64) float64 {
	return (b.x-a.x)*(y-a.y) - (b.y-a.y)*(x-a.x)
}

func (r *Renderer) line(a, b screenPt, c colorful.Color, alpha float64, blend Blend) {
	dx, dy := b.x-a.x, b.y-a.y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		r.blendPixel(int(a.x), int(a.y), c, alpha, blend)
		return
	}
	// Lines far off-screen are mostly clipped; cap the walk.
	limit := 4 * (r.Width + r.Height)
	if steps > limit {
		steps = limit
	}
	sx, sy := dx/float64(steps), dy/float64(steps)
	x, y := a.x, a.y
	for i := 0; i <= steps; i++ {
		r.blendPixel(int(math.Floor(x)), int(math.Floor(y)), c, alpha, blend)
		x += sx
		y += sy
	}
}

func (r *Renderer) splat(p screenPt, radius float64, c colorful.Color, alpha float64, blend Blend) {
	if radius <= 1 {
		r.blendPixel(int(math.Floor(p.x)), int(math.Floor(p.y)), c, alpha, blend)
		return
	}
	rad := int(math.Ceil(radius))
	cx, cy := int(math.Floor(p.x)), int(math.Floor(p.y))
	r2 := radius * radius
	for y := -rad; y <= rad; y++ {
		for x := -rad; x <= rad; x++ {
			if float64(x*x+y*y) <= r2 {
				r.blendPixel(cx+x, cy+y, c, alpha, blend)
			}
		}
	}
}

func (r *Renderer) texture(pr *primitive) {
	b := pr.tex.Bounds()
	if b.Empty() {
		return
	}
	tw, th := float64(b.Dx()), float64(b.Dy())
	p0, p1, p2 := pr.pts[0], pr.pts[1], pr.pts[2]
	m := f64.Aff3{
		(p1.x - p0.x) / tw, (p2.x - p0.x) / th, p0.x - float64(b.Min.X)*(p1.x-p0.x)/tw - float64(b.Min.Y)*(p2.x-p0.x)/th,
		(p1.y - p0.y) / tw, (p2.y - p0.y) / th, p0.y - float64(b.Min.X)*(p1.y-p0.y)/tw - float64(b.Min.Y)*(p2.y-p0.y)/th,
	}
	var opts *draw.Options
	if pr.alpha < 1 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: clampByte(pr.alpha * 255)})}
	}
	draw.ApproxBiLinear.Transform(r.frame, m, pr.tex, b, draw.Over, opts)
}

func fillRGBA(img *image.RGBA, c color.RGBA) {
	pix := img.Pix
	if len(pix) < 4 {
		return
	}
	pix[0], pix[1], pix[2], pix[3] = c.R, c.G, c.B, c.A
	for filled := 4; filled < len(pix); filled *= 2 {
		copy(pix[filled:], pix[:filled])
	}
}

func addColor(a, b colorful.Color) colorful.Color {
	return colorful.Color{R: a.R + b.R, G: a.G + b.G, B: a.B + b.B}
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
