// Package scene is a small retained-mode 3D scene graph with a software
// rasterizer. Presets build node trees out of wireframe meshes, point clouds,
// line sets, and flat-shaded or textured faces; the Renderer projects them
// through a perspective Camera into an RGBA surface, and PostProcessor adds
// bloom and film grain.
//
// The scene tracks every geometry, material, and node it hands out so
// callers can prove that a subgraph was fully released.
package scene
