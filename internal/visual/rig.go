package visual

import (
	"math"
	"math/rand/v2"

	"sonicvoyager/internal/scene"
)

const (
	restZ        = 30.0
	dollyFactor  = 0.05
	settleFactor = 0.1
	shake        = 0.4
)

// rig moves the camera between the rest pose and a slow cinematic drift,
// shaking it on beats.
type rig struct {
	camera *scene.Camera
	rng    *rand.Rand
}

func newRig(camera *scene.Camera, rng *rand.Rand) *rig {
	camera.Position = scene.V(0, 0, restZ)
	camera.LookAt(scene.V(0, 0, 0))
	return &rig{camera: camera, rng: rng}
}

func (r *rig) step(t float64, cinematic, beat bool) {
	targetX, targetZ := 0.0, restZ
	if cinematic {
		targetZ = restZ + math.Sin(t*0.1)*15
		targetX = math.Sin(t*0.05) * 5
	}
	pos := &r.camera.Position
	pos.Z = scene.Lerp(pos.Z, targetZ, dollyFactor)
	pos.X = scene.Lerp(pos.X, targetX, dollyFactor)
	if beat {
		pos.X += (r.rng.Float64() - 0.5) * shake
		pos.Y += (r.rng.Float64() - 0.5) * shake
		pos.Z += (r.rng.Float64() - 0.5) * shake
	} else {
		pos.Y = scene.Lerp(pos.Y, 0, settleFactor)
	}
	r.camera.LookAt(scene.V(0, 0, 0))
}
