package render

import (
	"sync"
	"unicode/utf8"

	"github.com/TFMV/fdgraph/models"
	"github.com/TFMV/fdgraph/physics"
)

var _ physics.Dimensions = (*BoxMetrics)(nil)

type textKey struct {
	label string
	font  float64
}

// BoxMetrics sizes the label box drawn for each vertex. Text widths are
// estimated from rune counts and cached per label and font size.
type BoxMetrics struct {
	BaseFont      float64 // font size of a vertex without edges
	MassWeight    float64 // font growth per incident edge
	PaddingWidth  float64
	PaddingHeight float64
	CharWidth     float64 // average glyph width as a fraction of font size

	mu     sync.Mutex
	widths map[textKey]float64
}

// NewBoxMetrics returns metrics matching the default label style
func NewBoxMetrics() *BoxMetrics {
	return &BoxMetrics{
		BaseFont:      20,
		MassWeight:    2,
		PaddingWidth:  50,
		PaddingHeight: 70,
		CharWidth:     0.6,
		widths:        make(map[textKey]float64),
	}
}

// Font returns the label font size for v
func (b *BoxMetrics) Font(v *models.Vertex) float64 {
	return b.BaseFont + float64(v.Degree())*b.MassWeight
}

// TextWidth returns the estimated pixel width of v's label
func (b *BoxMetrics) TextWidth(v *models.Vertex) float64 {
	key := textKey{label: v.Label, font: b.Font(v)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.widths[key]; ok {
		return w
	}
	if b.widths == nil {
		b.widths = make(map[textKey]float64)
	}
	w := float64(utf8.RuneCountInString(v.Label)) * key.font * b.CharWidth
	b.widths[key] = w
	return w
}

// Size returns the full box width and height for v
func (b *BoxMetrics) Size(v *models.Vertex) (width, height float64) {
	return b.TextWidth(v) + b.PaddingWidth, b.Font(v) + b.PaddingHeight
}

// HalfWidth returns half the box width, used to keep boxes from overlapping
func (b *BoxMetrics) HalfWidth(v *models.Vertex) float64 {
	w, _ := b.Size(v)
	return w / 2
}

// Cached returns the number of memoised text widths
func (b *BoxMetrics) Cached() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.widths)
}
