// Package raster renders pages into images for on-screen preview.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"
	"github.com/soderasen-au/go-common/util"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"

	"github.com/soderasen-au/go-gridprint/grid"
	"github.com/soderasen-au/go-gridprint/printing"
)

const DefaultDPI = 96.0

type Options struct {
	Paper     string           `json:"paper,omitempty" yaml:"paper,omitempty"`
	Landscape bool             `json:"landscape,omitempty" yaml:"landscape,omitempty"`
	Margins   printing.Margins `json:"margins" yaml:"margins"`
	DPI       float64          `json:"dpi,omitempty" yaml:"dpi,omitempty"`
}

// Preview is the page source of a preview job; each page is an RGBA image.
type Preview struct {
	Pages []*image.RGBA

	geo    printing.Geometry
	scale  float64 // pixels per hundredth of an inch
	dpi    float64
	faces  map[string]font.Face
	files  map[string]*opentype.Font
	images map[string]image.Image
	err    error
	logger *zerolog.Logger
}

func New(opts Options, logger *zerolog.Logger) *Preview {
	if logger == nil {
		logger = loggers.NullLogger
	}
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	size, _ := printing.PaperSize(opts.Paper, opts.Landscape)
	m := opts.Margins
	if m == (printing.Margins{}) {
		m = printing.DefaultMargins()
	}
	return &Preview{
		Pages:  make([]*image.RGBA, 0),
		geo:    printing.NewGeometry(size.W, size.H, m),
		scale:  dpi / 100,
		dpi:    dpi,
		faces:  make(map[string]font.Face),
		files:  make(map[string]*opentype.Font),
		images: make(map[string]image.Image),
		logger: logger,
	}
}

func (p *Preview) Geometry() printing.Geometry {
	return p.geo
}

func (p *Preview) NewPage() (printing.Canvas, printing.Geometry, error) {
	w := int(math.Ceil(p.geo.PageWidth * p.scale))
	h := int(math.Ceil(p.geo.PageHeight * p.scale))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	p.Pages = append(p.Pages, img)
	return &Page{preview: p, img: img}, p.geo, p.err
}

// WritePNG writes one file per page, <prefix>-<n>.png, and returns the file names.
func (p *Preview) WritePNG(dir, prefix string) ([]string, *util.Result) {
	files := make([]string, 0, len(p.Pages))
	for i, img := range p.Pages {
		name := filepath.Join(dir, fmt.Sprintf("%s-%d.png", prefix, i+1))
		f, err := os.Create(name)
		if err != nil {
			return files, util.Error("CreateFile", err)
		}
		err = png.Encode(f, img)
		f.Close()
		if err != nil {
			return files, util.Error("EncodePNG", err)
		}
		p.logger.Info().Msgf("preview page %d saved to %s", i+1, name)
		files = append(files, name)
	}
	return files, nil
}

func (p *Preview) px(v float64) int {
	return int(math.Round(v * p.scale))
}

func (p *Preview) rect(r printing.Rect) image.Rectangle {
	return image.Rect(p.px(r.X), p.px(r.Y), p.px(r.Right()), p.px(r.Bottom()))
}

func (p *Preview) fail(err error) {
	if p.err == nil && err != nil {
		p.logger.Error().Msgf("preview canvas: %s", err.Error())
		p.err = err
	}
}

func (p *Preview) face(f grid.Font) font.Face {
	f = f.Or(grid.DefaultFont())
	key := fmt.Sprintf("%s|%s|%.2f|%s", f.Family, f.Style(), f.Size, f.File)
	if face, ok := p.faces[key]; ok {
		return face
	}

	otf, err := p.openType(f)
	if err != nil {
		p.fail(err)
		otf, _ = opentype.Parse(goregular.TTF)
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{Size: f.Size, DPI: p.dpi, Hinting: font.HintingFull})
	if err != nil {
		p.fail(err)
		return nil
	}
	p.faces[key] = face
	return face
}

func (p *Preview) openType(f grid.Font) (*opentype.Font, error) {
	if f.File != "" {
		if otf, ok := p.files[f.File]; ok {
			return otf, nil
		}
		data, err := os.ReadFile(f.File)
		if err != nil {
			return nil, err
		}
		otf, err := opentype.Parse(data)
		if err != nil {
			return nil, err
		}
		p.files[f.File] = otf
		return otf, nil
	}

	ttf := goregular.TTF
	switch {
	case f.Bold && f.Italic:
		ttf = gobolditalic.TTF
	case f.Bold:
		ttf = gobold.TTF
	case f.Italic:
		ttf = goitalic.TTF
	}
	return opentype.Parse(ttf)
}

func (p *Preview) decode(img *printing.Image) image.Image {
	if decoded, ok := p.images[img.Name]; ok {
		return decoded
	}
	var decoded image.Image
	var err error
	r := bytes.NewReader(img.Data)
	switch img.Type {
	case "png":
		decoded, err = png.Decode(r)
	case "jpg":
		decoded, err = jpeg.Decode(r)
	case "gif":
		decoded, err = gif.Decode(r)
	default:
		err = fmt.Errorf("unsupported image type %s", img.Type)
	}
	if err != nil {
		p.fail(err)
		return nil
	}
	p.images[img.Name] = decoded
	return decoded
}

// Page is the canvas of one preview page.
type Page struct {
	preview *Preview
	img     *image.RGBA
}

func (pg *Page) Image() *image.RGBA {
	return pg.img
}

func (pg *Page) Clear(c grid.Color) {
	draw.Draw(pg.img, pg.img.Bounds(), image.NewUniform(c.RGBA()), image.Point{}, draw.Src)
}

func (pg *Page) fill(c grid.Color, r image.Rectangle) {
	draw.Draw(pg.img, r, image.NewUniform(c.RGBA()), image.Point{}, draw.Over)
}

func (pg *Page) penWidth(pen printing.Pen) int {
	w := pg.preview.px(pen.Width)
	if w < 1 {
		w = 1
	}
	return w
}

func (pg *Page) DrawRectangle(pen printing.Pen, r printing.Rect) {
	rr := pg.preview.rect(r)
	w := pg.penWidth(pen)
	pg.fill(pen.Color, image.Rect(rr.Min.X, rr.Min.Y, rr.Max.X+w, rr.Min.Y+w))
	pg.fill(pen.Color, image.Rect(rr.Min.X, rr.Max.Y, rr.Max.X+w, rr.Max.Y+w))
	pg.fill(pen.Color, image.Rect(rr.Min.X, rr.Min.Y, rr.Min.X+w, rr.Max.Y+w))
	pg.fill(pen.Color, image.Rect(rr.Max.X, rr.Min.Y, rr.Max.X+w, rr.Max.Y+w))
}

func (pg *Page) FillRectangle(c grid.Color, r printing.Rect) {
	pg.fill(c, pg.preview.rect(r))
}

func (pg *Page) DrawLine(pen printing.Pen, p1, p2 printing.Point) {
	w := pg.penWidth(pen)
	x1, y1 := float64(pg.preview.px(p1.X)), float64(pg.preview.px(p1.Y))
	x2, y2 := float64(pg.preview.px(p2.X)), float64(pg.preview.px(p2.Y))
	steps := int(math.Max(math.Abs(x2-x1), math.Abs(y2-y1)))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(x1 + (x2-x1)*t))
		y := int(math.Round(y1 + (y2-y1)*t))
		pg.fill(pen.Color, image.Rect(x, y, x+w, y+w))
	}
}

func (pg *Page) DrawImage(img *printing.Image, r printing.Rect) {
	if img == nil || len(img.Data) == 0 {
		return
	}
	src := pg.preview.decode(img)
	if src == nil {
		return
	}
	draw.CatmullRom.Scale(pg.img, pg.preview.rect(r), src, src.Bounds(), draw.Over, nil)
}

func (pg *Page) DrawText(text string, f grid.Font, c grid.Color, r printing.Rect, format printing.TextFormat) {
	face := pg.preview.face(f)
	if face == nil {
		return
	}
	scale := pg.preview.scale
	width := func(s string) float64 { return fixedToFloat(font.MeasureString(face, s)) / scale }
	lines := printing.LayoutLines(text, r.W, format, width)
	metrics := face.Metrics()
	lh := fixedToFloat(metrics.Height) / scale

	y := r.Y
	switch total := float64(len(lines)) * lh; format.LineAlign {
	case printing.AlignCenter:
		y += (r.H - total) / 2
	case printing.AlignFar:
		y += r.H - total
	}

	clip, ok := pg.img.SubImage(pg.preview.rect(r)).(*image.RGBA)
	if !ok {
		return
	}
	d := &font.Drawer{Dst: clip, Src: image.NewUniform(c.RGBA()), Face: face}
	for _, line := range lines {
		if format.RTL && printing.ContainsRTL(line) {
			line = visualOrder(line)
		}
		x := r.X
		switch lw := width(line); format.HorizontalAlign() {
		case printing.AlignCenter:
			x += (r.W - lw) / 2
		case printing.AlignFar:
			x += r.W - lw
		}
		d.Dot = fixed.Point26_6{
			X: fixed.Int26_6(x * scale * 64),
			Y: fixed.Int26_6(y*scale*64) + metrics.Ascent,
		}
		d.DrawString(line)
		y += lh
	}
}

func (pg *Page) MeasureText(text string, f grid.Font, maxWidth float64, format printing.TextFormat) printing.Size {
	face := pg.preview.face(f)
	if face == nil {
		return printing.Size{}
	}
	scale := pg.preview.scale
	width := func(s string) float64 { return fixedToFloat(font.MeasureString(face, s)) / scale }
	return printing.MeasureLines(text, maxWidth, fixedToFloat(face.Metrics().Height)/scale, format, width)
}

func (pg *Page) Err() error {
	return pg.preview.err
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// visualOrder puts a right-to-left line in display order using the bidi runs of the line:
// the runs are laid out from the right, and only right-to-left runs have their runes reversed,
// so numbers and Latin words keep their reading order.
func visualOrder(s string) string {
	var p bidi.Paragraph
	if _, err := p.SetString(s, bidi.DefaultDirection(bidi.RightToLeft)); err != nil {
		return s
	}
	o, err := p.Order()
	if err != nil {
		return s
	}
	runs := make([]bidi.Run, 0, o.NumRuns())
	for i := 0; i < o.NumRuns(); i++ {
		runs = append(runs, o.Run(i))
	}
	sort.SliceStable(runs, func(i, j int) bool {
		si, _ := runs[i].Pos()
		sj, _ := runs[j].Pos()
		return si > sj
	})

	sb := strings.Builder{}
	for _, run := range runs {
		if run.Direction() == bidi.RightToLeft {
			sb.WriteString(bidi.ReverseString(run.String()))
		} else {
			sb.WriteString(run.String())
		}
	}
	return sb.String()
}
