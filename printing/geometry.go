package printing

import (
	"strings"
)

// Layout constants, in hundredths of an inch.
const (
	TitleBandHeight = 90.0
	TitleGap        = 10.0
	CellPadding     = 3.0
	DateRegionWidth = 130.0
	LogoRegionWidth = 100.0
	BodyReserve     = 180.0
	FooterOffset    = 30.0

	LogoOffsetX = 25.0 // from the logo region's inner edge
	LogoOffsetY = 5.0
	LogoWidth   = 45.0
	LogoHeight  = 80.0

	SubTitleInset = 10.0 // between the subtitles and the date region divider
	SubTitle1Y    = 25.0
	SubTitle2Y    = 65.0
	TitleCenterY  = 35.0

	TitleFontSize = 13.0
	TitlePenWidth = 2.0

	DefaultMargin = 100.0
)

type Margins struct {
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

func DefaultMargins() Margins {
	return Margins{Left: DefaultMargin, Right: DefaultMargin, Top: DefaultMargin, Bottom: DefaultMargin}
}

// Geometry is the page geometry of one page-render callback.
type Geometry struct {
	Margins    Margins `json:"margins"`
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	// BodyHeight is the vertical space for the column header band plus data rows.
	BodyHeight float64 `json:"body_height"`
}

// NewGeometry derives the usable body height from the page size: the page height minus the
// top and bottom margins minus the space reserved for the title band and the footer.
func NewGeometry(pageWidth, pageHeight float64, m Margins) Geometry {
	return Geometry{
		Margins:    m,
		PageWidth:  pageWidth,
		PageHeight: pageHeight,
		BodyHeight: pageHeight - m.Top - m.Bottom - BodyReserve,
	}
}

// RightEdge is the x of the printable right edge, where right-to-left column accumulation starts.
func (g Geometry) RightEdge() float64 {
	return g.PageWidth - g.Margins.Right
}

// Span is the printable width between the left margin and the right edge.
func (g Geometry) Span() float64 {
	return g.RightEdge() - g.Margins.Left
}

// FooterY is the vertical center of the page number.
func (g Geometry) FooterY() float64 {
	return g.PageHeight - g.Margins.Bottom - FooterOffset
}

// mirror reflects r across the printable span, turning a right-to-left layout into a left-to-right one.
func (g Geometry) mirror(r Rect) Rect {
	r.X = g.Margins.Left + g.RightEdge() - r.Right()
	return r
}

func (g Geometry) mirrorX(x float64) float64 {
	return g.Margins.Left + g.RightEdge() - x
}

var paperSizes = map[string]Size{
	"a3":     {W: 1169, H: 1654},
	"a4":     {W: 827, H: 1169},
	"a5":     {W: 583, H: 827},
	"letter": {W: 850, H: 1100},
	"legal":  {W: 850, H: 1400},
}

// PaperSize returns the size of a named paper in hundredths of an inch, A4 when unknown.
func PaperSize(name string, landscape bool) (Size, bool) {
	s, ok := paperSizes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		s = paperSizes["a4"]
	}
	if landscape {
		s.W, s.H = s.H, s.W
	}
	return s, ok
}
