package scene

import (
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Kind selects how a node's geometry is drawn.
type Kind int

const (
	KindGroup Kind = iota
	KindMesh       // faces, or edges when the material is wireframe
	KindLines      // edges only
	KindPoints     // one splat per vertex
	KindLight
)

// Blend selects how a material combines with what is already drawn.
type Blend int

const (
	BlendNormal Blend = iota
	BlendAdditive
)

// LightKind distinguishes ambient from positional lights.
type LightKind int

const (
	LightAmbient LightKind = iota
	LightPoint
)

// Light illuminates solid faces.
type Light struct {
	Kind      LightKind
	Color     colorful.Color
	Intensity float64
	Distance  float64 // 0 means no falloff
}

// Fog fades distant primitives toward Color with exponential-squared falloff.
type Fog struct {
	Color   colorful.Color
	Density float64
}

// Geometry is vertex data shared by one or more nodes.
type Geometry struct {
	Positions []Vec
	Colors    []colorful.Color // optional, per vertex
	Edges     [][2]int
	Faces     [][3]int
	// UV holds texture coordinates for the first three vertices of a quad,
	// used to map a material texture.
	UV [][2]float64

	owner    *Scene
	disposed bool
}

// Dispose releases the geometry. Disposing twice is a no-op.
func (g *Geometry) Dispose() {
	if g == nil || g.disposed {
		return
	}
	g.disposed = true
	if g.owner != nil {
		g.owner.liveGeometries--
	}
}

// Disposed reports whether Dispose ran.
func (g *Geometry) Disposed() bool { return g.disposed }

// Material describes surface appearance.
type Material struct {
	Color        colorful.Color
	Emissive     colorful.Color // added after lighting
	Opacity      float64
	Wireframe    bool
	Size         float64 // point size in world units
	Blend        Blend
	VertexColors bool
	NoFog        bool
	Lit          bool // shade faces with scene lights
	Texture      image.Image
	Tint         bool // multiply Texture by Color

	owner     *Scene
	disposed  bool
	tinted    *image.RGBA
	tintedFor colorful.Color
	tintedSrc image.Image
}

// Dispose releases the material. Disposing twice is a no-op.
func (m *Material) Dispose() {
	if m == nil || m.disposed {
		return
	}
	m.disposed = true
	if m.owner != nil {
		m.owner.liveMaterials--
	}
}

// Disposed reports whether Dispose ran.
func (m *Material) Disposed() bool { return m.disposed }

// texture returns the image to draw, tinted when requested. The tinted copy
// is cached until the colour or source changes.
func (m *Material) texture() image.Image {
	if !m.Tint || m.Texture == nil {
		return m.Texture
	}
	if m.tinted != nil && m.tintedFor == m.Color && m.tintedSrc == m.Texture {
		return m.tinted
	}
	b := m.Texture.Bounds()
	if m.tinted == nil || m.tinted.Rect != b {
		m.tinted = image.NewRGBA(b)
	}
	c := m.Color.Clamped()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := m.Texture.At(x, y).RGBA()
			i := m.tinted.PixOffset(x, y)
			m.tinted.Pix[i] = uint8(float64(r>>8) * c.R)
			m.tinted.Pix[i+1] = uint8(float64(g>>8) * c.G)
			m.tinted.Pix[i+2] = uint8(float64(bl>>8) * c.B)
			m.tinted.Pix[i+3] = uint8(a >> 8)
		}
	}
	m.tintedFor, m.tintedSrc = m.Color, m.Texture
	return m.tinted
}

// Node is an element of the scene tree.
type Node struct {
	Name     string
	Kind     Kind
	Position Vec
	Rotation Vec // Euler angles, radians
	Scale    Vec
	Visible  bool
	Geometry *Geometry
	Material *Material
	Light    *Light

	parent   *Node
	children []*Node
}

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n.
func (n *Node) Remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Children returns the attached children. Do not modify the slice.
func (n *Node) Children() []*Node { return n.children }

// Parent returns the node's parent, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// Stats summarizes the resources a scene currently holds.
type Stats struct {
	Nodes          int // attached below the root
	NodesCreated   int // total ever created
	LiveGeometries int
	LiveMaterials  int
}

// Scene owns the node tree and counts resources.
type Scene struct {
	Background color.RGBA
	Fog        *Fog

	root           *Node
	nodesCreated   int
	liveGeometries int
	liveMaterials  int
}

// New returns an empty scene with a black background.
func New() *Scene {
	return &Scene{
		Background: color.RGBA{A: 255},
		root:       &Node{Name: "root", Kind: KindGroup, Scale: V(1, 1, 1), Visible: true},
	}
}

// Root returns the scene root.
func (s *Scene) Root() *Node { return s.root }

// Add attaches n to the root.
func (s *Scene) Add(n *Node) { s.root.Add(n) }

// Remove detaches n from the root.
func (s *Scene) Remove(n *Node) { s.root.Remove(n) }

// Stats reports current resource counts.
func (s *Scene) Stats() Stats {
	return Stats{
		Nodes:          countNodes(s.root) - 1,
		NodesCreated:   s.nodesCreated,
		LiveGeometries: s.liveGeometries,
		LiveMaterials:  s.liveMaterials,
	}
}

func countNodes(n *Node) int {
	total := 1
	for _, c := range n.children {
		total += countNodes(c)
	}
	return total
}

func (s *Scene) node(name string, kind Kind, g *Geometry, m *Material) *Node {
	s.nodesCreated++
	return &Node{Name: name, Kind: kind, Scale: V(1, 1, 1), Visible: true, Geometry: g, Material: m}
}

// Group creates an empty transform node.
func (s *Scene) Group(name string) *Node { return s.node(name, KindGroup, nil, nil) }

// Mesh creates a face or wireframe node.
func (s *Scene) Mesh(name string, g *Geometry, m *Material) *Node {
	return s.node(name, KindMesh, g, m)
}

// Lines creates an edge-only node.
func (s *Scene) Lines(name string, g *Geometry, m *Material) *Node {
	return s.node(name, KindLines, g, m)
}

// Points creates a point-cloud node.
func (s *Scene) Points(name string, g *Geometry, m *Material) *Node {
	return s.node(name, KindPoints, g, m)
}

// Light creates a light node.
func (s *Scene) Light(name string, light Light) *Node {
	n := s.node(name, KindLight, nil, nil)
	n.Light = &light
	return n
}

// NewGeometry registers vertex data with the scene.
func (s *Scene) NewGeometry(g Geometry) *Geometry {
	g.owner = s
	s.liveGeometries++
	return &g
}

// NewMaterial registers a material with the scene. A zero opacity is
// treated as fully opaque.
func (s *Scene) NewMaterial(m Material) *Material {
	if m.Opacity == 0 {
		m.Opacity = 1
	}
	m.owner = s
	s.liveMaterials++
	return &m
}

// Hex parses a #RRGGBB colour, falling back to white.
func Hex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	return c
}
