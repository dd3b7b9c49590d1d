// Command sonicvoyager renders audio-reactive visuals for a music track and
// captures them, with a live HUD overlay and the original audio, into a
// 1920x1080 video.
//
// Offline renders (`sonicvoyager render`) run faster than realtime and are
// deterministic for a fixed [render] seed. Realtime performances
// (`sonicvoyager play`) drive the sound card and can record as they go.
// Finished captures are listed with `sonicvoyager captures`.
package main
