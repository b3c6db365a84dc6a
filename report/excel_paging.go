package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"
	"github.com/xuri/excelize/v2"

	"github.com/soderasen-au/go-gridprint/canvas/pdf"
	"github.com/soderasen-au/go-gridprint/canvas/record"
	"github.com/soderasen-au/go-gridprint/grid"
	"github.com/soderasen-au/go-gridprint/printing"
)

const (
	sheetTitleRow  = 1
	sheetSub1Row   = 2
	sheetSub2Row   = 3
	sheetHeaderRow = 5
)

// excel paper size codes
var excelPaperSizes = map[string]int{
	"letter": 1,
	"legal":  5,
	"a3":     8,
	"a4":     9,
	"a5":     11,
}

// ExcelPagingPrinter writes one worksheet per printed page. Pages are cut exactly where the
// PDF output cuts them: the rows are paginated against PDF font metrics.
type ExcelPagingPrinter struct {
	ReportPrinterBase
}

// pagingWriter is the execution context of one Print call.
type pagingWriter struct {
	excel   *excelize.File
	session *printing.Session
	grid    *grid.Snapshot
	styles  sheetStyles
	logger  *zerolog.Logger
}

type sheetStyles struct {
	title    int
	subTitle int
	header   int
	rows     [2]int
	pageNum  int
}

func NewExcelPagingPrinter() *ExcelPagingPrinter {
	p := &ExcelPagingPrinter{}
	p.ReportResults = make(map[string]*ReportResult)
	return p
}

func excelColor(c grid.Color) string {
	return strings.TrimPrefix(c.Hex(), "#")
}

func excelFont(f grid.Font, c grid.Color) *excelize.Font {
	return &excelize.Font{Family: f.Family, Size: f.Size, Bold: f.Bold, Italic: f.Italic, Color: excelColor(c)}
}

func (p *pagingWriter) newStyles() *util.Result {
	s := p.session
	readingOrder := uint64(1)
	horizontalNear := "left"
	if s.Direction.IsRTL() {
		readingOrder = 2
		horizontalNear = "right"
	}
	border := []excelize.Border{
		{Type: "left", Color: excelColor(p.grid.ForeColor.Or(grid.Black)), Style: 1},
		{Type: "top", Color: excelColor(p.grid.ForeColor.Or(grid.Black)), Style: 1},
		{Type: "right", Color: excelColor(p.grid.ForeColor.Or(grid.Black)), Style: 1},
		{Type: "bottom", Color: excelColor(p.grid.ForeColor.Or(grid.Black)), Style: 1},
	}

	styles := []struct {
		id    *int
		style *excelize.Style
	}{
		{&p.styles.title, &excelize.Style{
			Font:      excelFont(s.TitleFont.WithSize(printing.TitleFontSize).Emphasized(), s.TitleColor),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", ReadingOrder: readingOrder},
		}},
		{&p.styles.subTitle, &excelize.Style{
			Font:      excelFont(s.TitleFont, s.TitleColor),
			Alignment: &excelize.Alignment{Horizontal: horizontalNear, Vertical: "center", ReadingOrder: readingOrder},
		}},
		{&p.styles.header, &excelize.Style{
			Font:      excelFont(s.HeaderFont, s.HeaderColor.ContrastText()),
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{excelColor(s.HeaderColor)}},
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: s.Wrap, ReadingOrder: readingOrder},
		}},
		{&p.styles.pageNum, &excelize.Style{
			Font:      excelFont(s.TitleFont, grid.Black),
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
	}
	for i := range p.styles.rows {
		styles = append(styles, struct {
			id    *int
			style *excelize.Style
		}{&p.styles.rows[i], &excelize.Style{
			Font:      excelFont(s.CellFont, grid.Black),
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{excelColor(p.grid.RowColor(i))}},
			Border:    border,
			Alignment: &excelize.Alignment{Horizontal: horizontalNear, Vertical: "center", WrapText: s.Wrap, ReadingOrder: readingOrder},
		}})
	}

	for _, st := range styles {
		id, err := p.excel.NewStyle(st.style)
		if err != nil {
			return util.Error("NewStyle", err)
		}
		*st.id = id
	}
	return nil
}

// printBanner writes text into a row merged across the page columns.
func (p *pagingWriter) printBanner(sheet string, row, colCount int, text string, styleId int) *util.Result {
	if text == "" {
		return nil
	}
	startCell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return util.Error("CoordinatesToCellName", err)
	}
	endCell, err := excelize.CoordinatesToCellName(colCount, row)
	if err != nil {
		return util.Error("CoordinatesToCellName", err)
	}
	if colCount > 1 {
		if err := p.excel.MergeCell(sheet, startCell, endCell); err != nil {
			return util.Error("MergeCell", err)
		}
	}
	if err := p.excel.SetCellStr(sheet, startCell, text); err != nil {
		return util.Error("SetCellStr", err)
	}
	if err := p.excel.SetCellStyle(sheet, startCell, endCell, styleId); err != nil {
		return util.Error("SetCellStyle", err)
	}
	return nil
}

func (p *pagingWriter) printTableHeader(sheet string, pr *printing.PageResult) *util.Result {
	for ci, colIx := range pr.Columns {
		col := p.grid.Columns[colIx]
		colName, err := excelize.ColumnNumberToName(ci + 1)
		if err != nil {
			return util.Error("ColumnNumberToName", err)
		}
		if err := p.excel.SetColWidth(sheet, colName, colName, grid.UnitsToExcelWidth(col.Width)); err != nil {
			return util.Error("SetColWidth", err)
		}
		cellName := fmt.Sprintf("%s%d", colName, sheetHeaderRow)
		if err := p.excel.SetCellStr(sheet, cellName, col.Header); err != nil {
			return util.Error("SetCellStr", err)
		}
		if err := p.excel.SetCellStyle(sheet, cellName, cellName, p.styles.header); err != nil {
			return util.Error("SetCellStyle", err)
		}
	}
	return p.setRowHeight(sheet, sheetHeaderRow, pr.HeaderHeight)
}

func (p *pagingWriter) printTableRows(sheet string, pr *printing.PageResult) *util.Result {
	for ri, rowIx := range pr.Rows {
		excelRow := sheetHeaderRow + 1 + ri
		for ci, colIx := range pr.Columns {
			cellName, err := excelize.CoordinatesToCellName(ci+1, excelRow)
			if err != nil {
				return util.Error("CoordinatesToCellName", err)
			}
			cell := p.grid.Cell(colIx, rowIx)
			if txt, ok := cell.Text(); ok {
				if num, isNum := cell.Value.(float64); isNum && txt == fmt.Sprint(num) {
					err = p.excel.SetCellFloat(sheet, cellName, num, -1, 64)
				} else {
					err = p.excel.SetCellStr(sheet, cellName, txt)
				}
				if err != nil {
					return util.Error("SetCellValue", err)
				}
			}
			if err := p.excel.SetCellStyle(sheet, cellName, cellName, p.styles.rows[rowIx%2]); err != nil {
				return util.Error("SetCellStyle", err)
			}
		}
		if res := p.setRowHeight(sheet, excelRow, pr.RowHeights[ri]); res != nil {
			return res
		}
	}
	return nil
}

// setRowHeight converts hundredths of an inch to points.
func (p *pagingWriter) setRowHeight(sheet string, row int, h float64) *util.Result {
	if err := p.excel.SetRowHeight(sheet, row, h*pdf.PointsPerUnit); err != nil {
		return util.Error("SetRowHeight", err)
	}
	return nil
}

func (p *pagingWriter) printPage(pageNum int, pr *printing.PageResult, page Page) *util.Result {
	sheetName := fmt.Sprintf("page-%d", pageNum)
	logger := p.logger.With().Str("sheet", sheetName).Int("page", pr.PageNumber).Logger()

	_, err := p.excel.NewSheet(sheetName)
	if err != nil {
		logger.Err(err).Msg("NewSheet")
		return util.Error("NewSheet", err)
	}

	colCount := len(pr.Columns)
	if colCount == 0 {
		colCount = 1
	}
	s := p.session

	if res := p.printBanner(sheetName, sheetTitleRow, colCount, s.Header, p.styles.title); res != nil {
		return res.With("printReportTitle")
	}
	if res := p.printBanner(sheetName, sheetSub1Row, colCount, s.SubTitle1, p.styles.subTitle); res != nil {
		return res.With("printSubTitle1")
	}
	if res := p.printBanner(sheetName, sheetSub2Row, colCount, s.SubTitle2, p.styles.subTitle); res != nil {
		return res.With("printSubTitle2")
	}
	if res := p.printTableHeader(sheetName, pr); res != nil {
		return res.LogWith(&logger, "printTableHeader")
	}
	if res := p.printTableRows(sheetName, pr); res != nil {
		return res.LogWith(&logger, "printTableRows")
	}
	if s.ShowPageNumber {
		row := sheetHeaderRow + len(pr.Rows) + 2
		if res := p.printBanner(sheetName, row, colCount, fmt.Sprint(pr.PageNumber), p.styles.pageNum); res != nil {
			return res.With("printPageNumber")
		}
	}

	if err := p.excel.SetSheetView(sheetName, 0, &excelize.ViewOptions{RightToLeft: util.Ptr(s.Direction.IsRTL())}); err != nil {
		return util.Error("SetSheetView", err)
	}

	paper, ok := excelPaperSizes[strings.ToLower(page.Paper)]
	if !ok {
		paper = excelPaperSizes["a4"]
	}
	orientation := "portrait"
	if page.Landscape {
		orientation = "landscape"
	}
	pageOpts := &excelize.PageLayoutOptions{
		Size:        util.Ptr(paper),
		Orientation: util.Ptr(orientation),
		FitToWidth:  util.Ptr(1),
	}
	if err := p.excel.SetPageLayout(sheetName, pageOpts); err != nil {
		logger.Err(err).Msg("SetPageLayoutOptions")
		return util.Error("SetPageLayoutOptions", err)
	}

	logger.Info().Msgf("page %d printed with %d rows", pr.PageNumber, len(pr.Rows))
	return nil
}

func (p *ExcelPagingPrinter) Print(ctx context.Context, r Report) *util.Result {
	j, res := newJob(r, "excel_paging")
	if res != nil {
		return res.With("NewJob")
	}
	defer p.setReportResult(j.result.ID, j.result)
	logger := j.logger

	size, _ := printing.PaperSize(r.Page.Paper, r.Page.Landscape)
	measurer := pdf.NewMeasurer()
	rec := record.New(printing.NewGeometry(size.W, size.H, r.Page.margins()), measurer)
	pages, err := printing.Run(ctx, j.renderer, rec, printing.NewCursor(j.renderer.Session().StartFrom))
	if err == nil {
		err = measurer.Err()
	}
	if err != nil {
		j.result.Result = util.Error("Paginate", err)
		return j.result.Result.LogWith(logger, "Run")
	}

	w := &pagingWriter{
		excel:   excelize.NewFile(),
		session: j.renderer.Session(),
		grid:    j.renderer.Grid(),
		logger:  logger,
	}
	defer w.excel.Close()
	if res := w.newStyles(); res != nil {
		return res.LogWith(logger, "NewStyles")
	}

	for i, pr := range pages {
		if res := w.printPage(i+1, pr, r.Page); res != nil {
			j.result.Result = res
			return res.With(fmt.Sprintf("printPage[%d]", i+1))
		}
	}

	// Remove default sheet and save
	if err := w.excel.DeleteSheet("Sheet1"); err != nil {
		logger.Warn().Msgf("DeleteSheet Sheet1: %v", err)
	}
	if err := w.excel.SaveAs(*j.result.ReportFile); err != nil {
		j.result.Result = util.Error("SaveWorkBook", err)
		return j.result.Result
	}
	logger.Info().Msgf("report saved as [%s]", *j.result.ReportFile)

	if res := j.finish(pages); res != nil {
		j.result.Result = res
		return res.With("Finish")
	}
	return nil
}
