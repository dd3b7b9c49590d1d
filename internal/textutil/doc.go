// Package textutil provides text helpers shared by the HUD, overlay, and
// capture packaging: title sanitizing for artifact names, rune-aware
// truncation, and display casing.
package textutil
