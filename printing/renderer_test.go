package printing_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/soderasen-au/go-common/loggers"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-gridprint/canvas/record"
	"github.com/soderasen-au/go-gridprint/grid"
	"github.com/soderasen-au/go-gridprint/printing"
)

// With the default measurer every single-line row is 18 high (15 + padding), and a page of
// 600x440 with default margins has a body of 60: the header plus two rows.
func testGeometry() printing.Geometry {
	return printing.NewGeometry(600, 440, printing.DefaultMargins())
}

func newGrid(rows int, widths ...float64) *grid.Snapshot {
	g := grid.NewSnapshot()
	for ci, w := range widths {
		g.AddColumn(string(rune('A'+ci)), w)
	}
	for ri := 0; ri < rows; ri++ {
		values := make([]interface{}, len(widths))
		for ci := range widths {
			values[ci] = fmt.Sprintf("r%dc%d", ri, ci)
		}
		g.AddRow(values...)
	}
	return g
}

func runJob(t *testing.T, g *grid.Snapshot, settings printing.Settings) (*record.Recorder, []*printing.PageResult) {
	t.Helper()
	rec := record.New(testGeometry(), record.DefaultMeasurer)
	r := printing.NewRenderer(g, settings, loggers.CoreDebugLogger)
	pages, err := printing.Run(context.Background(), r, rec, printing.NewCursor(1))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(pages) != len(rec.Pages) {
		t.Fatalf("%d page results for %d recorded pages", len(pages), len(rec.Pages))
	}
	return rec, pages
}

func TestRenderPageExample(t *testing.T) {
	g := newGrid(5, 100, 150, 80)
	r := printing.NewRenderer(g, printing.Settings{}, nil)
	rec := record.New(testGeometry(), nil)
	cur := printing.NewCursor(1)

	want := []struct {
		rows []int
		more bool
	}{
		{[]int{0, 1}, true},
		{[]int{2, 3}, true},
		{[]int{4}, false},
	}
	for i, w := range want {
		c, geo, _ := rec.NewPage()
		before := *cur
		res, err := r.RenderPage(c, geo, cur)
		if err != nil {
			t.Fatalf("page %d: RenderPage() error = %v", i+1, err)
		}
		if !reflect.DeepEqual(res.Rows, w.rows) {
			t.Errorf("page %d: rows = %v, want %v", i+1, res.Rows, w.rows)
		}
		if res.HasMorePages != w.more {
			t.Errorf("page %d: HasMorePages = %v, want %v", i+1, res.HasMorePages, w.more)
		}
		if res.PageNumber != i+1 {
			t.Errorf("page %d: PageNumber = %d", i+1, res.PageNumber)
		}
		if res.HeaderHeight != 18 {
			t.Errorf("page %d: HeaderHeight = %v, want 18", i+1, res.HeaderHeight)
		}
		if !reflect.DeepEqual(res.Columns, []int{0, 1, 2}) || len(res.Clipped) != 0 {
			t.Errorf("page %d: columns = %v, clipped = %v", i+1, res.Columns, res.Clipped)
		}
		if cur.NextRow < before.NextRow {
			t.Errorf("page %d: cursor went back from %d to %d", i+1, before.NextRow, cur.NextRow)
		}
	}
	if cur.NextRow != 5 {
		t.Errorf("NextRow = %d, want 5", cur.NextRow)
	}
	if cur.PageNumber != 3 {
		t.Errorf("PageNumber = %d, want 3 after the last page", cur.PageNumber)
	}
}

func TestRunPrintsEveryRowOnce(t *testing.T) {
	tests := []struct {
		name        string
		rows        int
		placeholder bool
		startFrom   *int
		wantPages   int
	}{
		{"Empty", 0, false, nil, 1},
		{"EmptyWithPlaceholder", 0, true, nil, 1},
		{"OneRow", 1, false, nil, 1},
		{"ExactPage", 2, false, util.Ptr(5), 1},
		{"FiveRows", 5, true, util.Ptr(1), 3},
		{"StartAtZero", 5, false, util.Ptr(0), 3},
		{"StartNegative", 3, false, util.Ptr(-1), 2},
		{"ManyRows", 17, true, util.Ptr(10), 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGrid(tt.rows, 100, 150, 80)
			if tt.placeholder {
				g.AppendPlaceholder()
			}
			settings := printing.Settings{PageNumber: printing.PageNumber{StartFrom: tt.startFrom}}
			rec, pages := runJob(t, g, settings)

			if len(pages) != tt.wantPages {
				t.Fatalf("%d pages, want %d", len(pages), tt.wantPages)
			}

			start := 1
			if tt.startFrom != nil {
				start = *tt.startFrom
			}
			printed := make([]int, 0)
			for n, pr := range pages {
				printed = append(printed, pr.Rows...)
				wantNum := start + n
				if pr.PageNumber != wantNum {
					t.Errorf("page %d numbered %d, want %d", n+1, pr.PageNumber, wantNum)
				}
				texts := rec.Pages[n].Texts()
				if last := texts[len(texts)-1]; last != strconv.Itoa(wantNum) {
					t.Errorf("page %d: last text = %q, want the page number %d", n+1, last, wantNum)
				}
				if pr.HasMorePages != (n < len(pages)-1) {
					t.Errorf("page %d: HasMorePages = %v", n+1, pr.HasMorePages)
				}
			}

			want := make([]int, tt.rows)
			for i := range want {
				want[i] = i
			}
			if !reflect.DeepEqual(printed, want) {
				t.Errorf("printed rows = %v, want %v", printed, want)
			}
		})
	}
}

func TestRowsDrawnWithText(t *testing.T) {
	rec, pages := runJob(t, newGrid(3, 100, 150), printing.Settings{})
	for n, pr := range pages {
		texts := strings.Join(rec.Pages[n].Texts(), " ")
		for _, ri := range pr.Rows {
			for ci := 0; ci < 2; ci++ {
				if cell := fmt.Sprintf("r%dc%d", ri, ci); !strings.Contains(texts, cell) {
					t.Errorf("page %d misses %s", n+1, cell)
				}
			}
		}
	}
	if strings.Contains(strings.Join(rec.Pages[0].Texts(), " "), "r2c0") {
		t.Errorf("row 2 should not be on the first page")
	}
}

func TestAbsentCellsDrawNoText(t *testing.T) {
	g := grid.NewSnapshot()
	g.AddColumn("A", 100)
	g.AddColumn("B", 100)
	g.AddRow("x", nil)
	rec, _ := runJob(t, g, printing.Settings{PageNumber: printing.PageNumber{Show: util.Ptr(false)}})

	// header A, header B, x
	if got := rec.Pages[0].Texts(); !reflect.DeepEqual(got, []string{"A", "B", "x"}) {
		t.Errorf("texts = %v", got)
	}
	// title band, two header cells, two data cells
	if got := len(rec.Pages[0].OpsOf(record.OpRect)); got != 5 {
		t.Errorf("%d rects, want 5", got)
	}
}

func TestFormattedCellWithoutValueSetsRowHeight(t *testing.T) {
	g := grid.NewSnapshot()
	g.AddColumn("A", 100)
	g.AddColumn("B", 40)
	g.AddRow("x", grid.Cell{Formatted: util.Ptr("one two three four")})
	rec, pages := runJob(t, g, printing.Settings{PageNumber: printing.PageNumber{Show: util.Ptr(false)}})

	if got := pages[0].RowHeights[0]; got <= 18 {
		t.Errorf("row height = %v, want the wrapped formatted text measured", got)
	}
	if texts := strings.Join(rec.Pages[0].Texts(), " "); strings.Contains(texts, "one") {
		t.Errorf("a cell without a value should not be drawn: %q", texts)
	}
}

func TestPlaceholderIsSkipped(t *testing.T) {
	g := newGrid(3, 100)
	g.AppendPlaceholder()
	// a placeholder in the middle is skipped as well
	g.Rows[1].IsNewRow = true

	_, pages := runJob(t, g, printing.Settings{})
	printed := make([]int, 0)
	for _, pr := range pages {
		printed = append(printed, pr.Rows...)
	}
	if !reflect.DeepEqual(printed, []int{0, 2}) {
		t.Errorf("printed rows = %v, want [0 2]", printed)
	}
	if len(pages) != 1 {
		t.Errorf("%d pages, want 1", len(pages))
	}
}

func TestColumnClipping(t *testing.T) {
	g := newGrid(5, 300, 50, 300, 40)
	g.Columns[1].Visible = false

	_, pages := runJob(t, g, printing.Settings{})
	for n, pr := range pages {
		if !reflect.DeepEqual(pr.Columns, []int{0}) {
			t.Errorf("page %d: columns = %v, want [0]", n+1, pr.Columns)
		}
		if !reflect.DeepEqual(pr.Clipped, []int{2, 3}) {
			t.Errorf("page %d: clipped = %v, want [2 3]", n+1, pr.Clipped)
		}
	}
}

func TestTallRowIsPlacedWhole(t *testing.T) {
	g := newGrid(3, 20)
	tall := strings.Repeat("x", 60)
	g.Rows[1].Cells[0] = grid.TextCell(tall)

	rec, pages := runJob(t, g, printing.Settings{})
	want := [][]int{{0}, {1}, {2}}
	if len(pages) != len(want) {
		t.Fatalf("%d pages, want %d", len(pages), len(want))
	}
	for n, pr := range pages {
		if !reflect.DeepEqual(pr.Rows, want[n]) {
			t.Errorf("page %d: rows = %v, want %v", n+1, pr.Rows, want[n])
		}
		if pr.Overflow != (n == 1) {
			t.Errorf("page %d: Overflow = %v", n+1, pr.Overflow)
		}
	}
	if h := pages[1].RowHeights[0]; h <= testGeometry().BodyHeight {
		t.Errorf("tall row height %v should exceed the body height", h)
	}
	if !strings.Contains(strings.Join(rec.Pages[1].Texts(), ""), tall) {
		t.Errorf("tall row text should be drawn whole on page 2")
	}
}

func TestHeaderMeasuresHiddenColumns(t *testing.T) {
	g := newGrid(1, 100, 14)
	g.Columns[1].Header = "abcdef"
	g.Columns[1].Visible = false

	_, pages := runJob(t, g, printing.Settings{})
	// 2 runes per line: 3 lines of 15, plus padding
	if got := pages[0].HeaderHeight; got != 48 {
		t.Errorf("HeaderHeight = %v, want 48", got)
	}
}

func TestWrapOff(t *testing.T) {
	g := newGrid(3, 20)
	g.Rows[1].Cells[0] = grid.TextCell(strings.Repeat("x ", 30))

	rec, pages := runJob(t, g, printing.Settings{WrapText: util.Ptr(false)})
	if len(pages) != 2 {
		t.Fatalf("%d pages, want 2", len(pages))
	}
	for _, h := range pages[0].RowHeights {
		if h != 18 {
			t.Errorf("row height = %v, want 18", h)
		}
	}
	for _, op := range rec.Pages[0].OpsOf(record.OpText) {
		if !op.Format.NoWrap {
			t.Errorf("text %q drawn with wrapping", op.Text)
		}
	}
}

func TestRowColorsAlternateAcrossPages(t *testing.T) {
	odd, even := grid.RGB(0, 0, 255), grid.RGB(255, 0, 0)
	g := newGrid(7, 100)
	g.DefaultRowColor = even
	g.AlternateRowColor = odd

	rec, pages := runJob(t, g, printing.Settings{})
	for n, pr := range pages {
		fills := rec.Pages[n].OpsOf(record.OpFill)
		// one header cell, then one cell per row
		if len(fills) != 1+len(pr.Rows) {
			t.Fatalf("page %d: %d fills for %d rows", n+1, len(fills), len(pr.Rows))
		}
		for k, ri := range pr.Rows {
			want := even
			if ri%2 == 1 {
				want = odd
			}
			if got := *fills[1+k].Color; got != want {
				t.Errorf("row %d on page %d filled %v, want %v", ri, n+1, got, want)
			}
		}
	}
}

func TestHeaderStyle(t *testing.T) {
	header := grid.RGB(10, 10, 10)
	g := newGrid(1, 100)
	g.ForeColor = grid.RGB(1, 2, 3)

	rec, _ := runJob(t, g, printing.Settings{Header: printing.HeaderStyle{Color: header}})
	page := rec.Pages[0]
	fills := page.OpsOf(record.OpFill)
	if got := *fills[0].Color; got != header {
		t.Errorf("header fill = %v, want %v", got, header)
	}
	texts := page.OpsOf(record.OpText)
	if texts[0].Text != "A" || *texts[0].Color != grid.White {
		t.Errorf("header text %q in %v, want white on a dark header", texts[0].Text, *texts[0].Color)
	}
	if texts[0].Format.Align != printing.AlignCenter {
		t.Errorf("header text should be centered")
	}
	rects := page.OpsOf(record.OpRect)
	// title band, header cell, data cell
	if got := rects[1].Pen.Color; got != grid.Black {
		t.Errorf("header border = %v, want black", got)
	}
	if got := rects[2].Pen.Color; got != g.ForeColor {
		t.Errorf("cell border = %v, want %v", got, g.ForeColor)
	}
}

func TestDirectionMirrorsLayout(t *testing.T) {
	tests := []struct {
		name      string
		direction printing.Direction
		cellX     []float64
		dividerX  []float64
	}{
		{"RTL", printing.DirectionRTL, []float64{400, 250}, []float64{230, 400}},
		{"LTR", printing.DirectionLTR, []float64{100, 200}, []float64{370, 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := runJob(t, newGrid(1, 100, 150), printing.Settings{Direction: tt.direction})
			page := rec.Pages[0]

			fills := page.OpsOf(record.OpFill)
			for ci, x := range tt.cellX {
				if got := fills[ci].Rect.X; got != x {
					t.Errorf("header cell %d at x %v, want %v", ci, got, x)
				}
				if got := fills[len(tt.cellX)+ci].Rect.X; got != x {
					t.Errorf("data cell %d at x %v, want %v", ci, got, x)
				}
			}
			lines := page.OpsOf(record.OpLine)
			if len(lines) != 2 {
				t.Fatalf("%d divider lines, want 2", len(lines))
			}
			for i, x := range tt.dividerX {
				if lines[i].P1.X != x || lines[i].P2.X != x {
					t.Errorf("divider %d at x %v, want %v", i, lines[i].P1.X, x)
				}
			}
			if rtl := page.OpsOf(record.OpText)[0].Format.RTL; rtl != tt.direction.IsRTL() {
				t.Errorf("text RTL = %v", rtl)
			}
		})
	}
}

func TestTitleBand(t *testing.T) {
	settings := printing.Settings{
		Title: printing.TitleBlock{
			Header:    "گزارش فروش",
			SubTitle1: "1403/01/01",
			SubTitle2: "صفحه",
			Logo:      &printing.Image{Name: "logo.png", Type: "png"},
		},
		Background: grid.RGB(250, 250, 250),
	}
	rec, _ := runJob(t, newGrid(1, 100), settings)
	page := rec.Pages[0]

	if page.Ops[0].Kind != record.OpClear || *page.Ops[0].Color != settings.Background {
		t.Errorf("first op should clear to the background, got %+v", page.Ops[0])
	}
	band := page.OpsOf(record.OpRect)[0]
	wantBand := printing.Rect{X: 100, Y: 100, W: 400, H: printing.TitleBandHeight}
	if *band.Rect != wantBand || band.Pen.Color != grid.TitleBlue {
		t.Errorf("title band = %+v %+v", *band.Rect, *band.Pen)
	}

	images := page.OpsOf(record.OpImage)
	if len(images) != 1 || images[0].Image != "logo.png" {
		t.Fatalf("images = %+v", images)
	}
	if want := (printing.Rect{X: 425, Y: 105, W: 45, H: 80}); *images[0].Rect != want {
		t.Errorf("logo at %+v, want %+v", *images[0].Rect, want)
	}

	texts := page.OpsOf(record.OpText)
	title := texts[0]
	if title.Text != settings.Title.Header || !title.Font.Bold || title.Font.Size != printing.TitleFontSize {
		t.Errorf("title = %q %+v", title.Text, *title.Font)
	}
	if center := title.Rect.X + title.Rect.W/2; center != 300 {
		t.Errorf("title centered at %v, want 300", center)
	}
	if texts[1].Text != "1403/01/01" || texts[2].Text != "صفحه" {
		t.Errorf("subtitles = %q, %q", texts[1].Text, texts[2].Text)
	}
	if texts[1].Rect.Y != 125 || texts[2].Rect.Y != 165 {
		t.Errorf("subtitles at y %v, %v", texts[1].Rect.Y, texts[2].Rect.Y)
	}
	if texts[1].Format.Align != printing.AlignNear || !texts[1].Format.RTL {
		t.Errorf("subtitle format = %+v", *texts[1].Format)
	}
}

func TestPageNumberHidden(t *testing.T) {
	rec, pages := runJob(t, newGrid(5, 100), printing.Settings{PageNumber: printing.PageNumber{Show: util.Ptr(false)}})
	for n := range pages {
		for _, txt := range rec.Pages[n].Texts() {
			if txt == strconv.Itoa(pages[n].PageNumber) {
				t.Errorf("page %d shows its page number", n+1)
			}
		}
	}
}

func TestCanvasFaultIsReturned(t *testing.T) {
	fault := errors.New("out of paper")
	rec := record.New(testGeometry(), nil)
	rec.Fault = fault
	r := printing.NewRenderer(newGrid(5, 100), printing.Settings{}, nil)

	pages, err := printing.Run(context.Background(), r, rec, printing.NewCursor(1))
	if !errors.Is(err, fault) {
		t.Fatalf("Run() error = %v, want %v", err, fault)
	}
	if len(pages) != 1 {
		t.Errorf("%d pages, want 1", len(pages))
	}
}

// cancellingSource cancels its job when the page after limit is requested.
type cancellingSource struct {
	*record.Recorder
	limit  int
	cancel context.CancelFunc
}

func (s *cancellingSource) NewPage() (printing.Canvas, printing.Geometry, error) {
	if len(s.Pages) == s.limit {
		s.cancel()
	}
	return s.Recorder.NewPage()
}

func TestRunCancelled(t *testing.T) {
	r := printing.NewRenderer(newGrid(9, 100), printing.Settings{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pages, err := printing.Run(ctx, r, record.New(testGeometry(), nil), printing.NewCursor(1))
	if !errors.Is(err, context.Canceled) || len(pages) != 0 {
		t.Errorf("Run() = %d pages, %v", len(pages), err)
	}

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	src := &cancellingSource{Recorder: record.New(testGeometry(), nil), limit: 1, cancel: cancel}
	cur := printing.NewCursor(1)
	pages, err = printing.Run(ctx, r, src, cur)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v", err)
	}
	// the second page was still rendered, the job stopped before the third
	if len(pages) != 2 || cur.NextRow != 4 || cur.PageNumber != 3 {
		t.Errorf("%d pages, cursor %+v", len(pages), *cur)
	}
}

func TestRunRestartsCursor(t *testing.T) {
	r := printing.NewRenderer(newGrid(3, 100), printing.Settings{PageNumber: printing.PageNumber{StartFrom: util.Ptr(7)}}, nil)
	cur := &printing.Cursor{NextRow: 3, PageNumber: 99}
	pages, err := printing.Run(context.Background(), r, record.New(testGeometry(), nil), cur)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 || pages[0].PageNumber != 7 || !reflect.DeepEqual(pages[0].Rows, []int{0, 1}) {
		t.Errorf("job did not restart: %d pages, first %+v", len(pages), pages[0])
	}
}

func TestSessionsDoNotShareState(t *testing.T) {
	g := newGrid(5, 100)
	r := printing.NewRenderer(g, printing.Settings{}, nil)
	recA, recB := record.New(testGeometry(), nil), record.New(testGeometry(), nil)
	curA, curB := printing.NewCursor(1), printing.NewCursor(1)

	// interleave two jobs on the same renderer
	for curA.NextRow < len(g.Rows) || curB.NextRow < len(g.Rows) {
		for _, job := range []struct {
			rec *record.Recorder
			cur *printing.Cursor
		}{{recA, curA}, {recB, curB}} {
			if job.cur.NextRow >= len(g.Rows) {
				continue
			}
			c, geo, _ := job.rec.NewPage()
			if _, err := r.RenderPage(c, geo, job.cur); err != nil {
				t.Fatal(err)
			}
		}
	}
	if len(recA.Pages) != 3 || len(recB.Pages) != 3 {
		t.Errorf("pages: %d and %d, want 3 each", len(recA.Pages), len(recB.Pages))
	}
	for n := range recA.Pages {
		if !reflect.DeepEqual(recA.Pages[n].Texts(), recB.Pages[n].Texts()) {
			t.Errorf("page %d differs between jobs", n+1)
		}
	}
}
