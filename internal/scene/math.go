package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is the vector type used throughout the scene.
type Vec = r3.Vec

// V is shorthand for constructing a Vec.
func V(x, y, z float64) Vec { return Vec{X: x, Y: y, Z: z} }

// Mat4 is a row-major affine transform.
type Mat4 [16]float64

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

// Mul returns a·b.
func (a Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += a[r*4+k] * b[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// Apply transforms a point.
func (a Mat4) Apply(v Vec) Vec {
	return Vec{
		X: a[0]*v.X + a[1]*v.Y + a[2]*v.Z + a[3],
		Y: a[4]*v.X + a[5]*v.Y + a[6]*v.Z + a[7],
		Z: a[8]*v.X + a[9]*v.Y + a[10]*v.Z + a[11],
	}
}

// ApplyDir transforms a direction, ignoring translation.
func (a Mat4) ApplyDir(v Vec) Vec {
	return Vec{
		X: a[0]*v.X + a[1]*v.Y + a[2]*v.Z,
		Y: a[4]*v.X + a[5]*v.Y + a[6]*v.Z,
		Z: a[8]*v.X + a[9]*v.Y + a[10]*v.Z,
	}
}

// Compose builds translation · rotation(X, then Y, then Z) · scale.
func Compose(pos, rot, scale Vec) Mat4 {
	sx, cx := math.Sincos(rot.X)
	sy, cy := math.Sincos(rot.Y)
	sz, cz := math.Sincos(rot.Z)

	// Rz·Ry·Rx: X is applied first.
	m00 := cy * cz
	m01 := sx*sy*cz - cx*sz
	m02 := cx*sy*cz + sx*sz
	m10 := cy * sz
	m11 := sx*sy*sz + cx*cz
	m12 := cx*sy*sz - sx*cz
	m20 := -sy
	m21 := sx * cy
	m22 := cx * cy

	return Mat4{
		m00 * scale.X, m01 * scale.Y, m02 * scale.Z, pos.X,
		m10 * scale.X, m11 * scale.Y, m12 * scale.Z, pos.Y,
		m20 * scale.X, m21 * scale.Y, m22 * scale.Z, pos.Z,
		0, 0, 0, 1,
	}
}

// lookAtView returns the world-to-camera transform for a camera at eye
// looking at target with the given up vector.
func lookAtView(eye, target, up Vec) Mat4 {
	f := r3.Sub(eye, target)
	if r3.Norm(f) == 0 {
		f = Vec{Z: 1}
	}
	z := r3.Unit(f)
	x := r3.Cross(up, z)
	if r3.Norm(x) == 0 {
		x = Vec{X: 1}
	}
	x = r3.Unit(x)
	y := r3.Cross(z, x)
	return Mat4{
		x.X, x.Y, x.Z, -r3.Dot(x, eye),
		y.X, y.Y, y.Z, -r3.Dot(y, eye),
		z.X, z.Y, z.Z, -r3.Dot(z, eye),
		0, 0, 0, 1,
	}
}

// Lerp moves a toward b by t.
func Lerp(a, b, t float64) float64 { return a + (b-a)*t }
