// Package render describes how a structural record is shown by a molecular
// viewer: the style presets, the element color scheme and the call sequence
// a Viewer receives. The viewer itself is an external collaborator.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/molexplorer/pkg/errors"
)

// Style selects a molecular representation.
type Style string

const (
	StyleStick     Style = "stick"
	StyleBallStick Style = "ballstick"
	StyleSphere    Style = "sphere"
	StyleWire      Style = "wire"

	DefaultStyle = StyleStick
)

var styleAliases = map[string]Style{
	"stick":          StyleStick,
	"ballstick":      StyleBallStick,
	"ball-and-stick": StyleBallStick,
	"sphere":         StyleSphere,
	"spacefill":      StyleSphere,
	"wire":           StyleWire,
	"wireframe":      StyleWire,
	"line":           StyleWire,
}

// Styles returns every style in menu order.
func Styles() []Style {
	return []Style{StyleStick, StyleBallStick, StyleSphere, StyleWire}
}

// ParseStyle accepts a style name or one of its aliases, ignoring case.
func ParseStyle(s string) (Style, error) {
	if st, ok := styleAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", errors.InvalidParam(fmt.Sprintf("unknown style %q (want stick, ballstick, sphere or wire)", s))
}

// StickSpec draws bonds as cylinders.
type StickSpec struct {
	Radius float64 `json:"radius"`
}

// SphereSpec draws atoms as spheres scaled from their van der Waals radius.
type SphereSpec struct {
	Scale float64 `json:"scale"`
}

// LineSpec draws bonds as lines.
type LineSpec struct {
	Width float64 `json:"linewidth"`
}

// StyleSpec is the full instruction handed to Viewer.SetStyle.
type StyleSpec struct {
	Style  Style       `json:"style"`
	Stick  *StickSpec  `json:"stick,omitempty"`
	Sphere *SphereSpec `json:"sphere,omitempty"`
	Line   *LineSpec   `json:"line,omitempty"`
	Colors ColorScheme `json:"colors"`
}

// Preset returns the spec of style with the default color scheme. Unknown
// styles get the stick preset.
func Preset(style Style) StyleSpec {
	spec := StyleSpec{Style: style, Colors: DefaultColorScheme()}
	switch style {
	case StyleBallStick:
		spec.Stick = &StickSpec{Radius: 0.12}
		spec.Sphere = &SphereSpec{Scale: 0.25}
	case StyleSphere:
		spec.Sphere = &SphereSpec{Scale: 0.4}
	case StyleWire:
		spec.Line = &LineSpec{Width: 2}
	default:
		spec.Style = StyleStick
		spec.Stick = &StickSpec{Radius: 0.15}
	}
	return spec
}

// Describe renders a one-line summary such as "stick r=0.15".
func (s StyleSpec) Describe() string {
	parts := []string{string(s.Style)}
	if s.Stick != nil {
		parts = append(parts, fmt.Sprintf("r=%.2f", s.Stick.Radius))
	}
	if s.Sphere != nil {
		parts = append(parts, fmt.Sprintf("scale=%.2f", s.Sphere.Scale))
	}
	if s.Line != nil {
		parts = append(parts, fmt.Sprintf("linewidth=%g", s.Line.Width))
	}
	return strings.Join(parts, " ")
}

// Element colors.
const (
	DefaultColor    = "#cccccc"
	BackgroundColor = "#f8fafc"
)

// ColorScheme maps upper-case element symbols to hex colors.
type ColorScheme map[string]string

// DefaultColorScheme returns a fresh copy of the built-in CPK-like palette.
func DefaultColorScheme() ColorScheme {
	return ColorScheme{
		"C":  "#808080",
		"H":  "#ffffff",
		"O":  "#ff0000",
		"N":  "#0000ff",
		"S":  "#ffff00",
		"P":  "#ffa500",
		"CL": "#00ff00",
		"F":  "#90ee90",
		"BR": "#a52a2a",
	}
}

// Color returns the color of element, DefaultColor when unmapped.
func (c ColorScheme) Color(element string) string {
	if hex, ok := c[strings.ToUpper(strings.TrimSpace(element))]; ok {
		return hex
	}
	return DefaultColor
}

// Elements returns the mapped symbols sorted alphabetically.
func (c ColorScheme) Elements() []string {
	out := make([]string, 0, len(c))
	for e := range c {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
