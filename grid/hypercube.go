package grid

import (
	"fmt"
	"math"

	"github.com/qlik-oss/enigma-go/v4"
	"github.com/soderasen-au/go-common/util"
)

const (
	glyphWidth     = 7.0 // approximate width of one glyph at the default font, in 1/100 in
	minCubeColumn  = 40.0
	maxCubeColumn  = 300.0
	cubeColPadding = 10.0
)

// FromHyperCube converts the data pages of a straight (stack) Qlik hypercube into a snapshot.
// Columns follow qColumnOrder (falling back to the effective sort order); pseudo dimensions and
// columns with calculation errors are skipped. When pages is nil the cube's own DataPages are used.
func FromHyperCube(cube *enigma.HyperCube, pages []*enigma.NxDataPage) (*Snapshot, *util.Result) {
	if cube == nil {
		return nil, util.MsgError("FromHyperCube", "nil hypercube")
	}
	if cube.Error != nil {
		return nil, util.MsgError("HyperCubeError", fmt.Sprintf("code: %d, %s", cube.Error.ErrorCode, cube.Error.ExtendedMessage))
	}
	if pages == nil {
		pages = cube.DataPages
	}

	dimCnt := len(cube.DimensionInfo)
	order := cube.ColumnOrder
	if len(order) == 0 {
		order = cube.EffectiveInterColumnSortOrder
	}
	if len(order) == 0 {
		order = make([]int, dimCnt+len(cube.MeasureInfo))
		for i := range order {
			order[i] = i
		}
	}

	s := NewSnapshot()
	// matrix column position => snapshot column index
	pos2col := make(map[int]int)
	for pos, colIx := range order {
		if colIx < 0 {
			continue
		}
		var title string
		var glyphs int
		if colIx < dimCnt {
			dim := cube.DimensionInfo[colIx]
			if dim.Error != nil {
				continue
			}
			title, glyphs = dim.FallbackTitle, dim.ApprMaxGlyphCount
		} else {
			expIx := colIx - dimCnt
			if expIx >= len(cube.MeasureInfo) {
				continue
			}
			exp := cube.MeasureInfo[expIx]
			if exp.Error != nil {
				continue
			}
			title, glyphs = exp.FallbackTitle, exp.ApprMaxGlyphCount
		}
		pos2col[pos] = len(s.Columns)
		s.AddColumn(title, cubeColumnWidth(title, glyphs))
	}

	rowData := make(map[int][]Cell)
	maxRow := -1
	for _, page := range pages {
		if page == nil || page.Area == nil || page.Area.Height < 1 {
			continue
		}
		for ri, rowCells := range page.Matrix {
			absRow := page.Area.Top + ri
			if absRow > maxRow {
				maxRow = absRow
			}
			cells, ok := rowData[absRow]
			if !ok {
				cells = make([]Cell, len(s.Columns))
				rowData[absRow] = cells
			}
			for ci, cell := range rowCells {
				colIx, ok := pos2col[page.Area.Left+ci]
				if !ok || cell == nil || cell.IsNull {
					continue
				}
				txt := cell.Text
				var value interface{} = txt
				if num := float64(cell.Num); !math.IsNaN(num) {
					value = num
				}
				cells[colIx] = Cell{Value: value, Formatted: &txt}
			}
		}
	}

	for ri := 0; ri <= maxRow; ri++ {
		cells, ok := rowData[ri]
		if !ok {
			cells = make([]Cell, len(s.Columns))
		}
		s.Rows = append(s.Rows, Row{Index: len(s.Rows), Cells: cells})
	}

	return s, nil
}

func cubeColumnWidth(title string, glyphs int) float64 {
	n := len([]rune(title))
	if glyphs > n {
		n = glyphs
	}
	w := float64(n)*glyphWidth + cubeColPadding
	return math.Max(minCubeColumn, math.Min(maxCubeColumn, w))
}
