// Package preflight provides readiness checks for the filesystem paths and
// external binaries a performance depends on.
//
// The CLI "status" command renders every check, and the render and play
// commands run RunAll before opening a capture so a missing output directory
// or a full disk fails fast instead of after the track has played.
package preflight
