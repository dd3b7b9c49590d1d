package visual

import (
	"strings"

	"sonicvoyager/internal/preset"
)

type genreRule struct {
	keywords []string
	preset   preset.Name
}

// genreRules is checked in order; the first rule with a matching keyword
// wins, so "Dark Cyberpunk" lands on Neon rather than Dark.
var genreRules = []genreRule{
	{keywords: []string{"cyberpunk"}, preset: preset.Neon},
	{keywords: []string{"ethereal"}, preset: preset.Ethereal},
	{keywords: []string{"dark"}, preset: preset.Dark},
	{keywords: []string{"energetic"}, preset: preset.Energy},
	{keywords: []string{"electronic", "rave", "phonk"}, preset: preset.Grid},
	{keywords: []string{"cinematic", "poly"}, preset: preset.Pentagon},
	{keywords: []string{"future funk", "2000s"}, preset: preset.Wave},
}

// DefaultGenrePreset is used when no keyword matches.
const DefaultGenrePreset = preset.Cosmic

// ResolvePreset maps a genre tag to a preset by case-insensitive substring
// match.
func ResolvePreset(genre string) preset.Name {
	g := strings.ToLower(genre)
	for _, rule := range genreRules {
		for _, kw := range rule.keywords {
			if strings.Contains(g, kw) {
				return rule.preset
			}
		}
	}
	return DefaultGenrePreset
}

// Keywords returns the genre keywords that select name, in table order.
func Keywords(name preset.Name) []string {
	var out []string
	for _, rule := range genreRules {
		if rule.preset == name {
			out = append(out, rule.keywords...)
		}
	}
	return out
}

type themeRule struct {
	keyword string
	hex     string
}

// Unlike presets, every matching theme rule applies in turn, so the last
// match decides the colour.
var themeRules = []themeRule{
	{keyword: "cyberpunk", hex: "#FF00FF"},
	{keyword: "ethereal", hex: "#AAEEFF"},
	{keyword: "dark", hex: "#FF3333"},
	{keyword: "energetic", hex: "#33FF33"},
}

// DefaultTheme is the accent colour for genres without a theme keyword.
const DefaultTheme = "#00F0FF"

// ThemeColor returns the accent colour, as #RRGGBB, for a genre tag.
func ThemeColor(genre string) string {
	g := strings.ToLower(genre)
	color := DefaultTheme
	for _, rule := range themeRules {
		if strings.Contains(g, rule.keyword) {
			color = rule.hex
		}
	}
	return color
}
