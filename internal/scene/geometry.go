package scene

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// The builders below return unregistered vertex data; pass the result to
// Scene.NewGeometry before attaching it to a node.

// PlaneGrid returns a w×h plane in the XY plane split into segW×segH cells.
func PlaneGrid(w, h float64, segW, segH int) Geometry {
	segW, segH = max(segW, 1), max(segH, 1)
	var g Geometry
	cols := segW + 1
	for iy := 0; iy <= segH; iy++ {
		y := h/2 - float64(iy)*h/float64(segH)
		for ix := 0; ix <= segW; ix++ {
			x := -w/2 + float64(ix)*w/float64(segW)
			g.Positions = append(g.Positions, V(x, y, 0))
		}
	}
	for iy := 0; iy <= segH; iy++ {
		for ix := 0; ix <= segW; ix++ {
			i := iy*cols + ix
			if ix < segW {
				g.Edges = append(g.Edges, [2]int{i, i + 1})
			}
			if iy < segH {
				g.Edges = append(g.Edges, [2]int{i, i + cols})
			}
			if ix < segW && iy < segH {
				g.Faces = append(g.Faces, [3]int{i, i + cols, i + 1}, [3]int{i + 1, i + cols, i + cols + 1})
			}
		}
	}
	return g
}

// Icosahedron returns a radius-r icosahedron, each face subdivided detail
// times and projected back onto the sphere.
func Icosahedron(r float64, detail int) Geometry {
	t := (1 + math.Sqrt(5)) / 2
	base := []Vec{
		V(-1, t, 0), V(1, t, 0), V(-1, -t, 0), V(1, -t, 0),
		V(0, -1, t), V(0, 1, t), V(0, -1, -t), V(0, 1, -t),
		V(t, 0, -1), V(t, 0, 1), V(-t, 0, -1), V(-t, 0, 1),
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	g := Geometry{Positions: base}
	for d := 0; d < detail; d++ {
		mid := map[[2]int]int{}
		midpoint := func(a, b int) int {
			key := [2]int{min(a, b), max(a, b)}
			if i, ok := mid[key]; ok {
				return i
			}
			g.Positions = append(g.Positions, r3.Scale(0.5, r3.Add(g.Positions[a], g.Positions[b])))
			mid[key] = len(g.Positions) - 1
			return mid[key]
		}
		next := make([][3]int, 0, len(faces)*4)
		for _, f := range faces {
			ab, bc, ca := midpoint(f[0], f[1]), midpoint(f[1], f[2]), midpoint(f[2], f[0])
			next = append(next, [3]int{f[0], ab, ca}, [3]int{f[1], bc, ab}, [3]int{f[2], ca, bc}, [3]int{ab, bc, ca})
		}
		faces = next
	}
	for i, p := range g.Positions {
		g.Positions[i] = r3.Scale(r, r3.Unit(p))
	}
	g.Faces = faces
	g.Edges = edgesFromFaces(faces)
	return g
}

// RingLine returns a closed circle of radius r in the XY plane.
func RingLine(r float64, segments int) Geometry {
	segments = max(segments, 3)
	var g Geometry
	for i := 0; i < segments; i++ {
		a := float64(i) / float64(segments) * 2 * math.Pi
		g.Positions = append(g.Positions, V(math.Cos(a)*r, math.Sin(a)*r, 0))
		g.Edges = append(g.Edges, [2]int{i, (i + 1) % segments})
	}
	return g
}

// Circle returns a filled disc of radius r in the XY plane.
func Circle(r float64, segments int) Geometry {
	g := RingLine(r, segments)
	center := len(g.Positions)
	g.Positions = append(g.Positions, V(0, 0, 0))
	for _, e := range g.Edges {
		g.Faces = append(g.Faces, [3]int{center, e[0], e[1]})
	}
	return g
}

// Torus returns a torus with major radius r and tube radius tube.
func Torus(r, tube float64, radial, tubular int) Geometry {
	radial, tubular = max(radial, 3), max(tubular, 3)
	var g Geometry
	for j := 0; j < radial; j++ {
		v := float64(j) / float64(radial) * 2 * math.Pi
		for i := 0; i < tubular; i++ {
			u := float64(i) / float64(tubular) * 2 * math.Pi
			g.Positions = append(g.Positions, V(
				(r+tube*math.Cos(v))*math.Cos(u),
				(r+tube*math.Cos(v))*math.Sin(u),
				tube*math.Sin(v),
			))
		}
	}
	at := func(j, i int) int { return (j%radial)*tubular + i%tubular }
	for j := 0; j < radial; j++ {
		for i := 0; i < tubular; i++ {
			a, b, c, d := at(j, i), at(j+1, i), at(j+1, i+1), at(j, i+1)
			g.Faces = append(g.Faces, [3]int{a, b, d}, [3]int{b, c, d})
		}
	}
	g.Edges = edgesFromFaces(g.Faces)
	return g
}

// Box returns an axis-aligned w×h×d box centred on the origin.
func Box(w, h, d float64) Geometry {
	x, y, z := w/2, h/2, d/2
	g := Geometry{Positions: []Vec{
		V(-x, -y, z), V(x, -y, z), V(x, y, z), V(-x, y, z),
		V(-x, -y, -z), V(x, -y, -z), V(x, y, -z), V(-x, y, -z),
	}}
	quads := [][4]int{
		{0, 1, 2, 3}, {5, 4, 7, 6}, {4, 0, 3, 7},
		{1, 5, 6, 2}, {3, 2, 6, 7}, {4, 5, 1, 0},
	}
	seen := map[[2]int]bool{}
	for _, q := range quads {
		g.Faces = append(g.Faces, [3]int{q[0], q[1], q[2]}, [3]int{q[0], q[2], q[3]})
		for k := 0; k < 4; k++ {
			a, b := q[k], q[(k+1)%4]
			key := [2]int{min(a, b), max(a, b)}
			if !seen[key] {
				seen[key] = true
				g.Edges = append(g.Edges, key)
			}
		}
	}
	return g
}

// Sphere returns a UV sphere of radius r.
func Sphere(r float64, widthSeg, heightSeg int) Geometry {
	widthSeg, heightSeg = max(widthSeg, 3), max(heightSeg, 2)
	var g Geometry
	for iy := 0; iy <= heightSeg; iy++ {
		theta := float64(iy) / float64(heightSeg) * math.Pi
		for ix := 0; ix <= widthSeg; ix++ {
			phi := float64(ix) / float64(widthSeg) * 2 * math.Pi
			g.Positions = append(g.Positions, V(
				-r*math.Cos(phi)*math.Sin(theta),
				r*math.Cos(theta),
				r*math.Sin(phi)*math.Sin(theta),
			))
		}
	}
	cols := widthSeg + 1
	for iy := 0; iy < heightSeg; iy++ {
		for ix := 0; ix < widthSeg; ix++ {
			a := iy*cols + ix
			b := a + cols
			if iy != 0 {
				g.Faces = append(g.Faces, [3]int{a, b, a + 1})
			}
			if iy != heightSeg-1 {
				g.Faces = append(g.Faces, [3]int{a + 1, b, b + 1})
			}
		}
	}
	g.Edges = edgesFromFaces(g.Faces)
	return g
}

// Quad returns a w×h rectangle in the XY plane with texture coordinates.
func Quad(w, h float64) Geometry {
	x, y := w/2, h/2
	return Geometry{
		Positions: []Vec{V(-x, y, 0), V(x, y, 0), V(-x, -y, 0), V(x, -y, 0)},
		UV:        [][2]float64{{0, 0}, {1, 0}, {0, 1}},
		Faces:     [][3]int{{0, 2, 1}, {1, 2, 3}},
		Edges:     [][2]int{{0, 1}, {1, 3}, {3, 2}, {2, 0}},
	}
}

// Cloud returns a point cloud. colors may be nil.
func Cloud(positions []Vec, colors []colorful.Color) Geometry {
	return Geometry{Positions: positions, Colors: colors}
}

// Segments returns disconnected line segments, one per pair of points.
func Segments(pairs ...[2]Vec) Geometry {
	var g Geometry
	for _, p := range pairs {
		i := len(g.Positions)
		g.Positions = append(g.Positions, p[0], p[1])
		g.Edges = append(g.Edges, [2]int{i, i + 1})
	}
	return g
}

func edgesFromFaces(faces [][3]int) [][2]int {
	seen := make(map[[2]int]struct{}, len(faces)*3/2)
	edges := make([][2]int, 0, len(faces)*3/2)
	for _, f := range faces {
		for k := 0; k < 3; k++ {
			a, b := f[k], f[(k+1)%3]
			key := [2]int{min(a, b), max(a, b)}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			edges = append(edges, key)
		}
	}
	return edges
}
