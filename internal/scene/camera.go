package scene

import "math"

// Camera is a perspective camera looking down its local -Z axis.
type Camera struct {
	FOV    float64 // vertical, degrees
	Aspect float64
	Near   float64
	Far    float64

	Position Vec
	Up       Vec
	target   Vec
}

// NewPerspective returns a camera at the origin looking toward -Z.
func NewPerspective(fov, aspect, near, far float64) *Camera {
	return &Camera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     V(0, 1, 0),
		target: V(0, 0, -1),
	}
}

// LookAt points the camera at target.
func (c *Camera) LookAt(target Vec) { c.target = target }

// Target returns the current look-at point.
func (c *Camera) Target() Vec { return c.target }

// View returns the world-to-camera transform.
func (c *Camera) View() Mat4 { return lookAtView(c.Position, c.target, c.Up) }

// focal returns the projection scale in pixels for a surface of height h.
func (c *Camera) focal(h int) float64 {
	return float64(h) / 2 / math.Tan(c.FOV*math.Pi/360)
}
