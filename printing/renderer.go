package printing

import (
	"math"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"

	"github.com/soderasen-au/go-gridprint/grid"
)

// PageResult describes what one RenderPage call put on its page.
type PageResult struct {
	PageNumber   int       `json:"page_number"`
	HeaderHeight float64   `json:"header_height"`
	Columns      []int     `json:"columns"`
	Clipped      []int     `json:"clipped,omitempty"`
	Rows         []int     `json:"rows"`
	RowHeights   []float64 `json:"row_heights"`
	// Overflow is set when a row taller than the body was placed anyway.
	Overflow     bool `json:"overflow,omitempty"`
	HasMorePages bool `json:"has_more_pages"`
}

// Renderer is the paginated grid renderer. It holds no pagination state of its own: the
// Cursor passed to RenderPage carries it from one page to the next.
type Renderer struct {
	grid    *grid.Snapshot
	session *Session
	logger  *zerolog.Logger
}

// NewRenderer resolves settings against g once for the whole session. A nil logger is silent.
func NewRenderer(g *grid.Snapshot, settings Settings, logger *zerolog.Logger) *Renderer {
	if logger == nil {
		logger = loggers.NullLogger
	}
	return &Renderer{grid: g, session: settings.Resolve(g), logger: logger}
}

func (r *Renderer) Session() *Session {
	return r.session
}

func (r *Renderer) Grid() *grid.Snapshot {
	return r.grid
}

type placedColumn struct {
	grid.Column
	X float64
}

// RenderPage draws one page: title band, column header band, as many rows as fit from
// cur.NextRow on, and the page number. It advances cur and, when more rows remain,
// increments the page number for the next call. The only error returned is the canvas fault.
func (r *Renderer) RenderPage(c Canvas, geo Geometry, cur *Cursor) (*PageResult, error) {
	s := r.session
	res := &PageResult{
		PageNumber: cur.PageNumber,
		Columns:    make([]int, 0),
		Rows:       make([]int, 0),
		RowHeights: make([]float64, 0),
	}
	logger := r.logger.With().Int("page", cur.PageNumber).Logger()
	logger.Debug().Msgf("render page from row %d", cur.NextRow)

	c.Clear(s.Background)
	r.drawTitle(c, geo)

	top := geo.Margins.Top + TitleBandHeight + TitleGap
	cols, clipped := r.placeColumns(geo)
	res.Clipped = clipped
	for _, col := range cols {
		res.Columns = append(res.Columns, col.Index)
	}
	if len(clipped) > 0 {
		logger.Trace().Msgf("clipped columns: %v", clipped)
	}

	// header height is measured over all columns, drawn for the placed ones only
	headerFmt := s.Format(AlignCenter)
	hh := 0.0
	for _, col := range r.grid.Columns {
		hh = math.Max(hh, c.MeasureText(col.Header, s.HeaderFont, col.Width, headerFmt).H)
	}
	hh += CellPadding
	res.HeaderHeight = hh

	headerText := s.HeaderColor.ContrastText()
	for _, col := range cols {
		cell := Rect{X: col.X, Y: top, W: col.Width, H: hh}
		r.drawCell(c, geo, cell, s.HeaderColor, grid.Black, col.Header, true, s.HeaderFont, headerText, headerFmt)
	}
	rowh := hh

	cellFmt := s.Format(AlignNear)
	visible := r.grid.VisibleColumns()
	i := cur.NextRow
	for ; i < len(r.grid.Rows); i++ {
		row := r.grid.Rows[i]
		if row.IsNewRow {
			continue
		}

		h := 0.0
		for _, col := range visible {
			if txt, ok := r.grid.Cell(col.Index, i).Display(); ok {
				h = math.Max(h, c.MeasureText(txt, s.CellFont, col.Width, cellFmt).H)
			}
		}
		h += CellPadding

		if rowh+h > geo.BodyHeight {
			if len(res.Rows) > 0 {
				logger.Trace().Msgf("row %d (height %.1f) deferred to next page", i, h)
				break
			}
			logger.Debug().Msgf("row %d (height %.1f) exceeds body height %.1f", i, h, geo.BodyHeight)
			res.Overflow = true
		}

		back := r.grid.RowColor(i)
		for _, col := range cols {
			txt, ok := r.grid.Cell(col.Index, i).Text()
			cell := Rect{X: col.X, Y: top + rowh, W: col.Width, H: h}
			r.drawCell(c, geo, cell, back, r.grid.ForeColor.Or(grid.Black), txt, ok, s.CellFont, grid.Black, cellFmt)
		}
		rowh += h
		res.Rows = append(res.Rows, i)
		res.RowHeights = append(res.RowHeights, h)
	}
	cur.NextRow = i

	if s.ShowPageNumber {
		r.drawPageNumber(c, geo, cur.PageNumber)
	}

	res.HasMorePages = r.hasRowsFrom(cur.NextRow)
	if res.HasMorePages {
		cur.PageNumber++
	}
	logger.Debug().Msgf("page done: %d rows, more: %v", len(res.Rows), res.HasMorePages)

	return res, c.Err()
}

// placeColumns accumulates visible column widths from the right edge. A column whose
// accumulated width exceeds the printable span is clipped, and so is every column after it.
func (r *Renderer) placeColumns(geo Geometry) ([]placedColumn, []int) {
	placed := make([]placedColumn, 0, len(r.grid.Columns))
	var clipped []int
	acc := 0.0
	span := geo.Span()
	for _, col := range r.grid.VisibleColumns() {
		acc += col.Width
		if acc > span {
			clipped = append(clipped, col.Index)
			continue
		}
		placed = append(placed, placedColumn{Column: col, X: geo.RightEdge() - acc})
	}
	return placed, clipped
}

func (r *Renderer) hasRowsFrom(i int) bool {
	for ; i < len(r.grid.Rows); i++ {
		if !r.grid.Rows[i].IsNewRow {
			return true
		}
	}
	return false
}

// place converts a rectangle laid out right-to-left into page coordinates.
func (r *Renderer) place(geo Geometry, rect Rect) Rect {
	if r.session.Direction.IsRTL() {
		return rect
	}
	return geo.mirror(rect)
}

func (r *Renderer) drawCell(c Canvas, geo Geometry, cell Rect, back, border grid.Color, text string, hasText bool, font grid.Font, fore grid.Color, format TextFormat) {
	cell = r.place(geo, cell)
	c.FillRectangle(back, cell)
	if hasText {
		textRect := cell
		textRect.H = math.Max(0, cell.H-CellPadding)
		c.DrawText(text, font, fore, textRect, format)
	}
	c.DrawRectangle(Pen{Color: border, Width: 1}, cell)
}

func (r *Renderer) drawTitle(c Canvas, geo Geometry) {
	s := r.session
	left, right, top := geo.Margins.Left, geo.RightEdge(), geo.Margins.Top
	pen := Pen{Color: grid.TitleBlue, Width: TitlePenWidth}

	c.DrawRectangle(pen, Rect{X: left, Y: top, W: right - left, H: TitleBandHeight})
	for _, x := range []float64{left + DateRegionWidth, right - LogoRegionWidth} {
		if !s.Direction.IsRTL() {
			x = geo.mirrorX(x)
		}
		c.DrawLine(pen, Point{X: x, Y: top}, Point{X: x, Y: top + TitleBandHeight})
	}

	if s.Logo != nil {
		logo := Rect{X: right - LogoRegionWidth + LogoOffsetX, Y: top + LogoOffsetY, W: LogoWidth, H: LogoHeight}
		c.DrawImage(s.Logo, r.place(geo, logo))
	}

	if s.Header != "" {
		font := s.TitleFont.WithSize(TitleFontSize).Emphasized()
		format := TextFormat{Align: AlignCenter, LineAlign: AlignCenter, RTL: s.Direction.IsRTL(), NoWrap: true}
		sz := c.MeasureText(s.Header, font, geo.Span(), format)
		cx := (left + right) / 2
		c.DrawText(s.Header, font, s.TitleColor, Rect{X: cx - sz.W/2, Y: top + TitleCenterY - sz.H/2, W: sz.W, H: sz.H}, format)
	}

	subFmt := TextFormat{Align: AlignNear, LineAlign: AlignNear, RTL: s.Direction.IsRTL(), NoWrap: true}
	for _, sub := range []struct {
		text string
		y    float64
	}{{s.SubTitle1, SubTitle1Y}, {s.SubTitle2, SubTitle2Y}} {
		if sub.text == "" {
			continue
		}
		sz := c.MeasureText(sub.text, s.TitleFont, DateRegionWidth, subFmt)
		rect := Rect{X: left, Y: top + sub.y, W: DateRegionWidth - SubTitleInset, H: sz.H}
		c.DrawText(sub.text, s.TitleFont, s.TitleColor, r.place(geo, rect), subFmt)
	}
}

func (r *Renderer) drawPageNumber(c Canvas, geo Geometry, n int) {
	format := TextFormat{Align: AlignCenter, LineAlign: AlignCenter, RTL: r.session.Direction.IsRTL(), NoWrap: true}
	text := strconv.Itoa(n)
	sz := c.MeasureText(text, r.session.TitleFont, geo.Span(), format)
	c.DrawText(text, r.session.TitleFont, grid.Black, Rect{X: geo.Margins.Left, Y: geo.FooterY() - sz.H/2, W: geo.Span(), H: sz.H}, format)
}
