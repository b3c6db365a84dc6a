// Package record implements a canvas that records draw commands instead of drawing them.
// Recorded pages are dumped as JSON and serve as the test double of the renderer.
package record

import (
	"encoding/json"
	"io"
	"os"

	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-gridprint/grid"
	"github.com/soderasen-au/go-gridprint/printing"
)

const (
	OpClear = "clear"
	OpRect  = "rect"
	OpFill  = "fill"
	OpLine  = "line"
	OpImage = "image"
	OpText  = "text"
)

// Measurer provides text metrics, in hundredths of an inch.
type Measurer interface {
	StringWidth(text string, font grid.Font) float64
	LineHeight(font grid.Font) float64
}

// FixedMeasurer gives every rune the same width and every line the same height, whatever the font.
type FixedMeasurer struct {
	Char float64
	Line float64
}

var DefaultMeasurer = FixedMeasurer{Char: 7, Line: 15}

func (m FixedMeasurer) StringWidth(text string, _ grid.Font) float64 {
	return float64(len([]rune(text))) * m.Char
}

func (m FixedMeasurer) LineHeight(_ grid.Font) float64 {
	return m.Line
}

type Op struct {
	Kind   string               `json:"op"`
	Rect   *printing.Rect       `json:"rect,omitempty"`
	P1     *printing.Point      `json:"p1,omitempty"`
	P2     *printing.Point      `json:"p2,omitempty"`
	Pen    *printing.Pen        `json:"pen,omitempty"`
	Color  *grid.Color          `json:"color,omitempty"`
	Text   string               `json:"text,omitempty"`
	Font   *grid.Font           `json:"font,omitempty"`
	Format *printing.TextFormat `json:"format,omitempty"`
	Image  string               `json:"image,omitempty"`
}

type Page struct {
	Number   int               `json:"number"`
	Geometry printing.Geometry `json:"geometry"`
	Ops      []Op              `json:"ops"`
}

// OpsOf returns the ops of one kind, in drawing order.
func (p *Page) OpsOf(kind string) []Op {
	ret := make([]Op, 0)
	for _, op := range p.Ops {
		if op.Kind == kind {
			ret = append(ret, op)
		}
	}
	return ret
}

func (p *Page) Texts() []string {
	ret := make([]string, 0)
	for _, op := range p.OpsOf(OpText) {
		ret = append(ret, op.Text)
	}
	return ret
}

// Recorder is a printing.PageSource whose pages record what is drawn on them.
type Recorder struct {
	Geometry printing.Geometry `json:"-"`
	Measurer Measurer          `json:"-"`
	Pages    []*Page           `json:"pages"`
	// Fault, when set, is reported by every page canvas as its error.
	Fault error `json:"-"`
}

func New(geo printing.Geometry, m Measurer) *Recorder {
	if m == nil {
		m = DefaultMeasurer
	}
	return &Recorder{Geometry: geo, Measurer: m, Pages: make([]*Page, 0)}
}

func (r *Recorder) NewPage() (printing.Canvas, printing.Geometry, error) {
	page := &Page{Number: len(r.Pages) + 1, Geometry: r.Geometry, Ops: make([]Op, 0)}
	r.Pages = append(r.Pages, page)
	return &Canvas{rec: r, page: page}, r.Geometry, nil
}

func (r *Recorder) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (r *Recorder) Save(file string) *util.Result {
	f, err := os.Create(file)
	if err != nil {
		return util.Error("CreateFile", err)
	}
	defer f.Close()
	if err := r.WriteJSON(f); err != nil {
		return util.Error("WriteJSON", err)
	}
	return nil
}

// Canvas records the draw commands of one page.
type Canvas struct {
	rec  *Recorder
	page *Page
}

func (c *Canvas) Page() *Page {
	return c.page
}

func (c *Canvas) add(op Op) {
	c.page.Ops = append(c.page.Ops, op)
}

func (c *Canvas) Clear(color grid.Color) {
	c.add(Op{Kind: OpClear, Color: &color})
}

func (c *Canvas) DrawRectangle(pen printing.Pen, r printing.Rect) {
	c.add(Op{Kind: OpRect, Pen: &pen, Rect: &r})
}

func (c *Canvas) FillRectangle(color grid.Color, r printing.Rect) {
	c.add(Op{Kind: OpFill, Color: &color, Rect: &r})
}

func (c *Canvas) DrawLine(pen printing.Pen, p1, p2 printing.Point) {
	c.add(Op{Kind: OpLine, Pen: &pen, P1: &p1, P2: &p2})
}

func (c *Canvas) DrawImage(img *printing.Image, r printing.Rect) {
	name := ""
	if img != nil {
		name = img.Name
	}
	c.add(Op{Kind: OpImage, Image: name, Rect: &r})
}

func (c *Canvas) DrawText(text string, font grid.Font, color grid.Color, r printing.Rect, format printing.TextFormat) {
	c.add(Op{Kind: OpText, Text: text, Font: &font, Color: &color, Rect: &r, Format: &format})
}

func (c *Canvas) MeasureText(text string, font grid.Font, maxWidth float64, format printing.TextFormat) printing.Size {
	width := func(s string) float64 { return c.rec.Measurer.StringWidth(s, font) }
	return printing.MeasureLines(text, maxWidth, c.rec.Measurer.LineHeight(font), format, width)
}

func (c *Canvas) Err() error {
	return c.rec.Fault
}
