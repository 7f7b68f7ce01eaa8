package render

import (
	"image/color"

	"roadviz/internal/config"
)

// Color is a linear RGBA color with components in [0, 1]
type Color struct {
	R, G, B, A float32
}

// RGB builds an opaque color
func RGB(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// FromConfig converts a configured triple into an opaque color
func FromConfig(c config.RGB) Color {
	return RGB(float32(c[0]), float32(c[1]), float32(c[2]))
}

// RGBA converts to an 8-bit color for image backends
func (c Color) RGBA() color.RGBA {
	return color.RGBA{
		R: channel(c.R * c.A),
		G: channel(c.G * c.A),
		B: channel(c.B * c.A),
		A: channel(c.A),
	}
}

func channel(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Palette holds every color the renderer draws with
type Palette struct {
	BackgroundBottom Color
	BackgroundTop    Color
	Edge             Color
	Node             Color
	Visited          Color
	Active           Color
	Route            Color
}

// DefaultPalette returns the stock colors
func DefaultPalette() Palette {
	return PaletteFrom(config.DefaultPalette())
}

// PaletteFrom converts configured colors
func PaletteFrom(p config.PaletteConfig) Palette {
	return Palette{
		BackgroundBottom: FromConfig(p.BackgroundBottom),
		BackgroundTop:    FromConfig(p.BackgroundTop),
		Edge:             FromConfig(p.Edge),
		Node:             FromConfig(p.Node),
		Visited:          FromConfig(p.Visited),
		Active:           FromConfig(p.Active),
		Route:            FromConfig(p.Route),
	}
}
