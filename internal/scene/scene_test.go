package scene

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestStatsTrackResources(t *testing.T) {
	s := New()
	geo := s.NewGeometry(Box(1, 1, 1))
	mat := s.NewMaterial(Material{Color: Hex("#ff0000")})
	mesh := s.Mesh("box", geo, mat)
	s.Add(mesh)

	got := s.Stats()
	want := Stats{Nodes: 1, NodesCreated: 1, LiveGeometries: 1, LiveMaterials: 1}
	if got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}

	geo.Dispose()
	geo.Dispose()
	mat.Dispose()
	mat.Dispose()
	s.Remove(mesh)
	got = s.Stats()
	if got.LiveGeometries != 0 || got.LiveMaterials != 0 || got.Nodes != 0 {
		t.Fatalf("stats after dispose = %+v", got)
	}
	if got.NodesCreated != 1 {
		t.Fatalf("nodes created should be cumulative, got %d", got.NodesCreated)
	}
}

func TestNodeReparent(t *testing.T) {
	s := New()
	a, b, child := s.Group("a"), s.Group("b"), s.Group("child")
	s.Add(a)
	s.Add(b)
	a.Add(child)
	b.Add(child)
	if len(a.Children()) != 0 || len(b.Children()) != 1 || child.Parent() != b {
		t.Fatalf("child not moved: a=%d b=%d", len(a.Children()), len(b.Children()))
	}
	if got := s.Stats().Nodes; got != 3 {
		t.Fatalf("nodes = %d, want 3", got)
	}
}

func TestGeometryBuilders(t *testing.T) {
	grid := PlaneGrid(100, 100, 50, 50)
	if len(grid.Positions) != 51*51 {
		t.Fatalf("grid vertices = %d", len(grid.Positions))
	}
	if len(grid.Faces) != 50*50*2 {
		t.Fatalf("grid faces = %d", len(grid.Faces))
	}

	ico := Icosahedron(2, 0)
	if len(ico.Positions) != 12 || len(ico.Faces) != 20 || len(ico.Edges) != 30 {
		t.Fatalf("icosahedron = %d/%d/%d", len(ico.Positions), len(ico.Faces), len(ico.Edges))
	}
	ico1 := Icosahedron(2, 1)
	if len(ico1.Faces) != 80 || len(ico1.Positions) != 42 {
		t.Fatalf("subdivided icosahedron = %d vertices, %d faces", len(ico1.Positions), len(ico1.Faces))
	}
	for _, p := range ico1.Positions {
		if r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z); math.Abs(r-2) > 1e-9 {
			t.Fatalf("vertex off sphere: %v", r)
		}
	}

	ring := RingLine(5, 64)
	if len(ring.Edges) != 64 || ring.Edges[63] != [2]int{63, 0} {
		t.Fatalf("ring not closed: %v", ring.Edges[len(ring.Edges)-1])
	}
}

func TestRenderDrawsVisibleGeometry(t *testing.T) {
	s := New()
	s.Add(s.Mesh("box", s.NewGeometry(Box(4, 4, 4)), s.NewMaterial(Material{Color: Hex("#ffffff")})))

	cam := NewPerspective(75, 1, 0.1, 1000)
	cam.Position = V(0, 0, 10)
	cam.LookAt(V(0, 0, 0))

	r := NewRenderer(64, 64)
	img := r.Render(s, cam)
	if got := img.RGBAAt(32, 32); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("centre pixel = %v, want white", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Fatalf("corner pixel = %v, want background", got)
	}
}

func TestRenderSkipsGeometryBehindCamera(t *testing.T) {
	s := New()
	s.Add(s.Mesh("box", s.NewGeometry(Box(4, 4, 4)), s.NewMaterial(Material{Color: Hex("#ffffff")})))

	cam := NewPerspective(75, 1, 0.1, 1000)
	cam.Position = V(0, 0, 10)
	cam.LookAt(V(0, 0, 20))

	img := NewRenderer(32, 32).Render(s, cam)
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			t.Fatalf("expected empty frame, found lit pixel at %d", i/4)
		}
	}
}

func TestRenderSkipsDisposedResources(t *testing.T) {
	s := New()
	geo := s.NewGeometry(Box(4, 4, 4))
	s.Add(s.Mesh("box", geo, s.NewMaterial(Material{Color: Hex("#ffffff")})))
	geo.Dispose()

	cam := NewPerspective(75, 1, 0.1, 1000)
	cam.Position = V(0, 0, 10)
	cam.LookAt(V(0, 0, 0))
	if got := NewRenderer(16, 16).Render(s, cam).RGBAAt(8, 8); got.R != 0 {
		t.Fatalf("disposed geometry was drawn: %v", got)
	}
}

func TestRenderTexturedQuad(t *testing.T) {
	tex := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(tex.Pix); i += 4 {
		tex.Pix[i], tex.Pix[i+3] = 255, 255
	}
	s := New()
	s.Add(s.Mesh("board", s.NewGeometry(Quad(6, 6)), s.NewMaterial(Material{Texture: tex})))

	cam := NewPerspective(75, 1, 0.1, 1000)
	cam.Position = V(0, 0, 5)
	cam.LookAt(V(0, 0, 0))
	got := NewRenderer(32, 32).Render(s, cam).RGBAAt(16, 16)
	if got.R < 200 || got.G > 50 {
		t.Fatalf("texture not drawn at centre: %v", got)
	}
}

func TestPostProcessorGrainIsDeterministic(t *testing.T) {
	mk := func() *image.RGBA {
		img := image.NewRGBA(image.Rect(0, 0, 16, 16))
		fillRGBA(img, color.RGBA{128, 128, 128, 255})
		return img
	}
	a, b := mk(), mk()
	settings := PostSettings{BloomStrength: 1.2, BloomRadius: 0.4, BloomThreshold: 0.85, Grain: 0.35}
	NewPostProcessor(7).Apply(a, settings)
	NewPostProcessor(7).Apply(b, settings)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("grain differs at byte %d", i)
		}
	}
}

func TestPostProcessorBloomBrightensNeighbours(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	fillRGBA(img, color.RGBA{A: 255})
	for y := 28; y < 36; y++ {
		for x := 28; x < 36; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	NewPostProcessor(1).Apply(img, PostSettings{BloomStrength: 1, BloomRadius: 0.5, BloomThreshold: 0.5})
	if got := img.RGBAAt(24, 32); got.R == 0 {
		t.Fatalf("expected glow next to the bright square, got %v", got)
	}
}
