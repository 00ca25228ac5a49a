package ingest

import (
	"fmt"
	"math"

	"github.com/TFMV/fdgraph/models"
)

// goldenAngle spreads generated hues so consecutive types stay distinct
const goldenAngle = 137.50776405003785

// DefaultPalette lists the colours handed out before hues are generated
var DefaultPalette = []string{
	"#4F8A8B",
	"#FBD46D",
	"#F76B8A",
	"#A3D8F4",
	"#374785",
	"#24305E",
	"#70A1D7",
	"#F8E9A1",
	"#A1DE93",
	"#FFB6B9",
	"#6A0572",
	"#AB83A1",
	"#F67280",
	"#355C7D",
	"#C06C84",
}

// ColorAssigner gives every vertex type and edge label a stable colour of its
// own. Vertex types and edge labels share one key space.
type ColorAssigner struct {
	palette []string
	colours map[string]string
	used    map[string]bool
	next    int
}

// NewColorAssigner creates an assigner over palette. An empty palette falls
// back to DefaultPalette.
func NewColorAssigner(palette []string) *ColorAssigner {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &ColorAssigner{
		palette: palette,
		colours: make(map[string]string),
		used:    make(map[string]bool),
	}
}

// Colour returns the colour for key, allocating one on first use
func (c *ColorAssigner) Colour(key string) string {
	if colour, ok := c.colours[key]; ok {
		return colour
	}
	colour := c.allocate()
	for c.used[colour] {
		colour = c.allocate()
	}
	c.colours[key] = colour
	c.used[colour] = true
	return colour
}

// Assign colours every vertex by type and every edge by main type
func (c *ColorAssigner) Assign(g *models.Graph) {
	for _, v := range g.Vertices() {
		v.Colour = c.Colour(v.Type)
	}
	for _, e := range g.Edges() {
		e.Colour = c.Colour(e.MainType())
	}
}

// Reset forgets every allocation
func (c *ColorAssigner) Reset() {
	c.colours = make(map[string]string)
	c.used = make(map[string]bool)
	c.next = 0
}

func (c *ColorAssigner) allocate() string {
	i := c.next
	c.next++
	if i < len(c.palette) {
		return c.palette[i]
	}
	hue := math.Mod(float64(i-len(c.palette))*goldenAngle, 360)
	saturation := 40 + (i%3)*5
	lightness := 45 + (i%4)*5
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", int(hue), saturation, lightness)
}
