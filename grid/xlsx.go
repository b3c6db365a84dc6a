package grid

import (
	"math"
	"strconv"
	"strings"

	"github.com/soderasen-au/go-common/util"
	"github.com/xuri/excelize/v2"
)

type XLSXOptions struct {
	Sheet          string
	PlaceholderRow bool
}

// ExcelWidthToUnits converts a column width in characters to hundredths of an inch (96 dpi).
func ExcelWidthToUnits(chars float64) float64 {
	px := math.Trunc((256*chars + math.Trunc(128.0/7)) / 256 * 7)
	return math.Round(px / 96 * 100)
}

// UnitsToExcelWidth is the inverse of ExcelWidthToUnits, rounded to 2 decimals.
func UnitsToExcelWidth(units float64) float64 {
	px := units / 100 * 96
	chars := (px - 5) / 7
	if chars < 0 {
		chars = 0
	}
	return math.Round(chars*100) / 100
}

func LoadXLSX(file string, opts XLSXOptions) (*Snapshot, *util.Result) {
	f, err := excelize.OpenFile(file)
	if err != nil {
		return nil, util.Error("OpenFile", err)
	}
	defer f.Close()
	return FromExcel(f, opts)
}

// FromExcel reads the first row of a sheet as headers and the rest as data rows.
// Displayed (formatted) cell text is used for drawing; numeric raw values are kept as float64.
func FromExcel(f *excelize.File, opts XLSXOptions) (*Snapshot, *util.Result) {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, util.Error("GetRows", err)
	}
	rawRows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, util.Error("GetRawRows", err)
	}

	s := NewSnapshot()
	if len(rows) == 0 {
		if opts.PlaceholderRow {
			s.AppendPlaceholder()
		}
		return s, nil
	}

	colCnt := 0
	for _, r := range rows {
		if len(r) > colCnt {
			colCnt = len(r)
		}
	}

	for ci := 0; ci < colCnt; ci++ {
		header := ""
		if ci < len(rows[0]) {
			header = rows[0][ci]
		}
		colName, err := excelize.ColumnNumberToName(ci + 1)
		if err != nil {
			return nil, util.Error("ColumnNumberToName", err)
		}
		width, err := f.GetColWidth(sheet, colName)
		if err != nil {
			return nil, util.Error("GetColWidth", err)
		}
		visible, err := f.GetColVisible(sheet, colName)
		if err != nil {
			return nil, util.Error("GetColVisible", err)
		}
		col := s.AddColumn(header, ExcelWidthToUnits(width))
		col.Visible = visible
	}

	for ri := 1; ri < len(rows); ri++ {
		values := make([]interface{}, colCnt)
		for ci, txt := range rows[ri] {
			if txt == "" {
				continue
			}
			raw := txt
			if ri < len(rawRows) && ci < len(rawRows[ri]) {
				raw = rawRows[ri][ci]
			}
			values[ci] = excelCell(txt, raw)
		}
		s.AddRow(values...)
	}

	if opts.PlaceholderRow {
		s.AppendPlaceholder()
	}
	return s, nil
}

func excelCell(formatted, raw string) Cell {
	txt := formatted
	if num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return Cell{Value: num, Formatted: &txt}
	}
	return Cell{Value: raw, Formatted: &txt}
}
