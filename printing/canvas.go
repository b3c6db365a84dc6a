package printing

import (
	"github.com/soderasen-au/go-gridprint/grid"
)

// All coordinates are in hundredths of an inch, origin at the top-left corner of the page.

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type Pen struct {
	Color grid.Color `json:"color"`
	Width float64    `json:"width"`
}

type Align int

const (
	AlignNear Align = iota
	AlignCenter
	AlignFar
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignFar:
		return "far"
	default:
		return "near"
	}
}

func (a Align) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// TextFormat mirrors the string-format flags of a GDI-like surface. Near/Far are relative to
// the reading direction: with RTL set, Near is the right edge.
type TextFormat struct {
	Align     Align `json:"align"`
	LineAlign Align `json:"line_align"`
	RTL       bool  `json:"rtl,omitempty"`
	NoWrap    bool  `json:"no_wrap,omitempty"`
}

// HorizontalAlign resolves Near/Far against the reading direction into the physical side:
// AlignNear means left, AlignFar means right.
func (f TextFormat) HorizontalAlign() Align {
	if !f.RTL || f.Align == AlignCenter {
		return f.Align
	}
	if f.Align == AlignNear {
		return AlignFar
	}
	return AlignNear
}

type Image struct {
	Name string `json:"name"`
	// Type is the image format understood by the canvas ("png", "jpg", "gif").
	Type string `json:"type"`
	Data []byte `json:"-"`
}

// Canvas is the drawing surface one page is rendered into.
//
// Drawing methods never return errors; a surface that faults latches the first error and
// reports it from Err, which the renderer surfaces to its caller unmodified.
type Canvas interface {
	Clear(c grid.Color)
	DrawRectangle(pen Pen, r Rect)
	FillRectangle(c grid.Color, r Rect)
	DrawLine(pen Pen, p1, p2 Point)
	DrawImage(img *Image, r Rect)
	DrawText(text string, font grid.Font, c grid.Color, r Rect, format TextFormat)
	// MeasureText returns the size of text laid out in maxWidth. Without NoWrap the text wraps
	// at word boundaries; with NoWrap it is a single line.
	MeasureText(text string, font grid.Font, maxWidth float64, format TextFormat) Size
	Err() error
}
