// Package pdf renders pages into a PDF document with gofpdf.
package pdf

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-gridprint/grid"
	"github.com/soderasen-au/go-gridprint/printing"
)

const (
	PointsPerUnit   = 0.72 // one hundredth of an inch in points
	LineHeightRatio = 1.2
)

type Options struct {
	Paper     string           `json:"paper,omitempty" yaml:"paper,omitempty"`
	Landscape bool             `json:"landscape,omitempty" yaml:"landscape,omitempty"`
	Margins   printing.Margins `json:"margins" yaml:"margins"`
	Compress  bool             `json:"compress,omitempty" yaml:"compress,omitempty"`
	Title     string           `json:"title,omitempty" yaml:"title,omitempty"`
	Author    string           `json:"author,omitempty" yaml:"author,omitempty"`
}

// Document is both the page source and the canvas of a PDF print job: every NewPage call
// adds a page to the same document.
type Document struct {
	pdf    *gofpdf.Fpdf
	geo    printing.Geometry
	tr     func(string) string
	fonts  map[string]bool // registered TrueType family+style
	images map[string]bool
	logger *zerolog.Logger
}

func New(opts Options, logger *zerolog.Logger) *Document {
	if logger == nil {
		logger = loggers.NullLogger
	}
	size, ok := printing.PaperSize(opts.Paper, opts.Landscape)
	if !ok && opts.Paper != "" {
		logger.Warn().Msgf("unknown paper %s, using A4", opts.Paper)
	}
	m := opts.Margins
	if m == (printing.Margins{}) {
		m = printing.DefaultMargins()
	}

	// orientation is already applied to size
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: size.W * PointsPerUnit, Ht: size.H * PointsPerUnit},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	// cell padding is part of the layout
	pdf.SetCellMargin(0)
	pdf.SetCompression(opts.Compress)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}

	return &Document{
		pdf:    pdf,
		geo:    printing.NewGeometry(size.W, size.H, m),
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		fonts:  make(map[string]bool),
		images: make(map[string]bool),
		logger: logger,
	}
}

func (d *Document) Geometry() printing.Geometry {
	return d.geo
}

func (d *Document) PageCount() int {
	return d.pdf.PageNo()
}

func (d *Document) NewPage() (printing.Canvas, printing.Geometry, error) {
	d.pdf.AddPage()
	d.logger.Trace().Msgf("pdf page %d added", d.pdf.PageNo())
	return d, d.geo, d.pdf.Error()
}

func (d *Document) Output(w io.Writer) *util.Result {
	if err := d.pdf.Output(w); err != nil {
		return util.Error("OutputPDF", err)
	}
	return nil
}

func (d *Document) Save(file string) *util.Result {
	if err := d.pdf.OutputFileAndClose(file); err != nil {
		return util.Error("SavePDF", err)
	}
	return nil
}

// families available without a font file; others fall back to arial
var coreFonts = map[string]bool{"arial": true, "helvetica": true, "courier": true, "times": true}

func pt(v float64) float64 {
	return v * PointsPerUnit
}

// setFont selects font and returns whether it is a TrueType (UTF-8) font.
func (d *Document) setFont(font grid.Font) bool {
	font = font.Or(grid.DefaultFont())
	style := font.Style()
	if font.File == "" {
		family := strings.ToLower(font.Family)
		if !coreFonts[family] {
			family = "arial"
		}
		d.pdf.SetFont(family, style, font.Size)
		return false
	}

	family := font.Family
	if family == "" {
		family = strings.TrimSuffix(filepath.Base(font.File), filepath.Ext(font.File))
	}
	family = "utf8-" + family
	if key := family + "/" + style; !d.fonts[key] {
		d.pdf.AddUTF8Font(family, style, font.File)
		d.fonts[key] = true
	}
	d.pdf.SetFont(family, style, font.Size)
	return true
}

func (d *Document) text(s string, utf8 bool) string {
	if utf8 {
		return s
	}
	return d.tr(s)
}

// stringWidth is in hundredths of an inch; the font must be set.
func (d *Document) stringWidth(s string, utf8 bool) float64 {
	return d.pdf.GetStringWidth(d.text(s, utf8)) / PointsPerUnit
}

// lineHeight scales to hundredths of an inch before applying the ratio, so whole point sizes
// give exact heights.
func lineHeight(font grid.Font) float64 {
	return font.Or(grid.DefaultFont()).Size * 100 * LineHeightRatio / 72
}

func (d *Document) Clear(c grid.Color) {
	d.FillRectangle(c, printing.Rect{W: d.geo.PageWidth, H: d.geo.PageHeight})
}

func (d *Document) DrawRectangle(pen printing.Pen, r printing.Rect) {
	d.pdf.SetDrawColor(pen.Color.R, pen.Color.G, pen.Color.B)
	d.pdf.SetLineWidth(pt(pen.Width))
	d.pdf.Rect(pt(r.X), pt(r.Y), pt(r.W), pt(r.H), "D")
}

func (d *Document) FillRectangle(c grid.Color, r printing.Rect) {
	d.pdf.SetFillColor(c.R, c.G, c.B)
	d.pdf.Rect(pt(r.X), pt(r.Y), pt(r.W), pt(r.H), "F")
}

func (d *Document) DrawLine(pen printing.Pen, p1, p2 printing.Point) {
	d.pdf.SetDrawColor(pen.Color.R, pen.Color.G, pen.Color.B)
	d.pdf.SetLineWidth(pt(pen.Width))
	d.pdf.Line(pt(p1.X), pt(p1.Y), pt(p2.X), pt(p2.Y))
}

func (d *Document) DrawImage(img *printing.Image, r printing.Rect) {
	if img == nil || len(img.Data) == 0 {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: img.Type}
	if !d.images[img.Name] {
		d.pdf.RegisterImageOptionsReader(img.Name, opts, bytes.NewReader(img.Data))
		d.images[img.Name] = true
	}
	d.pdf.ImageOptions(img.Name, pt(r.X), pt(r.Y), pt(r.W), pt(r.H), false, opts, 0, "")
}

func (d *Document) DrawText(text string, font grid.Font, c grid.Color, r printing.Rect, format printing.TextFormat) {
	utf8 := d.setFont(font)
	width := func(s string) float64 { return d.stringWidth(s, utf8) }
	lines := printing.LayoutLines(text, r.W, format, width)
	lh := lineHeight(font)

	y := r.Y
	switch total := float64(len(lines)) * lh; format.LineAlign {
	case printing.AlignCenter:
		y += (r.H - total) / 2
	case printing.AlignFar:
		y += r.H - total
	}

	align := "L"
	switch format.HorizontalAlign() {
	case printing.AlignCenter:
		align = "C"
	case printing.AlignFar:
		align = "R"
	}

	d.pdf.SetTextColor(c.R, c.G, c.B)
	d.pdf.ClipRect(pt(r.X), pt(r.Y), pt(r.W), pt(r.H), false)
	for _, line := range lines {
		// gofpdf reverses runes in RTL mode, only wanted for right-to-left script
		rtl := utf8 && format.RTL && printing.ContainsRTL(line)
		if rtl {
			d.pdf.RTL()
		}
		d.pdf.SetXY(pt(r.X), pt(y))
		d.pdf.CellFormat(pt(r.W), pt(lh), d.text(line, utf8), "", 0, align+"M", false, 0, "")
		if rtl {
			d.pdf.LTR()
		}
		y += lh
	}
	d.pdf.ClipEnd()
}

func (d *Document) MeasureText(text string, font grid.Font, maxWidth float64, format printing.TextFormat) printing.Size {
	utf8 := d.setFont(font)
	width := func(s string) float64 { return d.stringWidth(s, utf8) }
	return printing.MeasureLines(text, maxWidth, lineHeight(font), format, width)
}

func (d *Document) Err() error {
	return d.pdf.Error()
}

// Measurer measures text with the PDF font metrics without drawing anything. It lets other
// outputs make the same pagination decisions as the PDF.
type Measurer struct {
	doc *Document
}

func NewMeasurer() *Measurer {
	return &Measurer{doc: New(Options{}, nil)}
}

func (m *Measurer) StringWidth(text string, font grid.Font) float64 {
	utf8 := m.doc.setFont(font)
	return m.doc.stringWidth(text, utf8)
}

func (m *Measurer) LineHeight(font grid.Font) float64 {
	return lineHeight(font)
}

func (m *Measurer) Err() error {
	return m.doc.Err()
}
