package grid

import (
	"fmt"
)

const (
	DefaultColumnWidth = 100.0 // hundredths of an inch
	DefaultFontFamily  = "Arial"
	DefaultFontSize    = 9.0
)

type Font struct {
	Family string  `json:"family,omitempty" yaml:"family,omitempty"`
	Size   float64 `json:"size,omitempty" yaml:"size,omitempty"`
	Bold   bool    `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty" yaml:"italic,omitempty"`
	// File is an optional TrueType file, required for scripts outside cp1252 (e.g. Persian, Arabic).
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

func DefaultFont() Font {
	return Font{Family: DefaultFontFamily, Size: DefaultFontSize}
}

func (f Font) IsZero() bool {
	return f.Family == "" && f.Size == 0 && f.File == ""
}

// Or fills the unset parts of f from def.
func (f Font) Or(def Font) Font {
	if f.IsZero() {
		return def
	}
	if f.Family == "" {
		f.Family = def.Family
		if f.File == "" {
			f.File = def.File
		}
	}
	if f.Size <= 0 {
		f.Size = def.Size
	}
	return f
}

func (f Font) WithSize(size float64) Font {
	f.Size = size
	return f
}

func (f Font) Emphasized() Font {
	f.Bold = true
	return f
}

// Style returns the style letters in the "BI" convention of PDF writers.
func (f Font) Style() string {
	s := ""
	if f.Bold {
		s += "B"
	}
	if f.Italic {
		s += "I"
	}
	return s
}

type Column struct {
	Index   int     `json:"index" yaml:"index"`
	Header  string  `json:"header" yaml:"header"`
	Width   float64 `json:"width" yaml:"width"`
	Visible bool    `json:"visible" yaml:"visible"`
}

// Cell holds the raw value and its display text. A nil Formatted means the cell has nothing to draw.
type Cell struct {
	Value     interface{} `json:"value,omitempty" yaml:"value,omitempty"`
	Formatted *string     `json:"formatted,omitempty" yaml:"formatted,omitempty"`
}

func TextCell(s string) Cell {
	return Cell{Value: s, Formatted: &s}
}

// Display returns the formatted text whenever there is one, even without a raw value.
// Row heights are measured from it.
func (c Cell) Display() (string, bool) {
	if c.Formatted == nil {
		return "", false
	}
	return *c.Formatted, true
}

// Text is what gets drawn: the formatted text of a cell that has a value.
func (c Cell) Text() (string, bool) {
	if c.Value == nil || c.Formatted == nil {
		return "", false
	}
	return *c.Formatted, true
}

type Row struct {
	Index int    `json:"index" yaml:"index"`
	Cells []Cell `json:"cells" yaml:"cells"`
	// IsNewRow marks the trailing "new row" placeholder of editable grids; it is never printed.
	IsNewRow bool `json:"is_new_row,omitempty" yaml:"is_new_row,omitempty"`
}

// Snapshot is a read-only view of a grid taken for the duration of one print job.
type Snapshot struct {
	Columns []Column `json:"columns" yaml:"columns"`
	Rows    []Row    `json:"rows" yaml:"rows"`

	DefaultRowColor   Color `json:"default_row_color" yaml:"default_row_color"`
	AlternateRowColor Color `json:"alternate_row_color" yaml:"alternate_row_color"`
	ForeColor         Color `json:"fore_color" yaml:"fore_color"`
	HeaderColor       Color `json:"header_color" yaml:"header_color"`
	Font              Font  `json:"font" yaml:"font"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Columns:           make([]Column, 0),
		Rows:              make([]Row, 0),
		DefaultRowColor:   White,
		AlternateRowColor: White,
		ForeColor:         Black,
		HeaderColor:       LightGray,
		Font:              DefaultFont(),
	}
}

func (s *Snapshot) AddColumn(header string, width float64) *Column {
	if width <= 0 {
		width = DefaultColumnWidth
	}
	s.Columns = append(s.Columns, Column{Index: len(s.Columns), Header: header, Width: width, Visible: true})
	return &s.Columns[len(s.Columns)-1]
}

// AddRow appends a data row. nil values become absent cells, strings are used as-is,
// anything else is formatted with fmt.
func (s *Snapshot) AddRow(values ...interface{}) *Row {
	cells := make([]Cell, len(values))
	for i, v := range values {
		switch tv := v.(type) {
		case nil:
		case Cell:
			cells[i] = tv
		case string:
			cells[i] = TextCell(tv)
		default:
			txt := fmt.Sprintf("%v", tv)
			cells[i] = Cell{Value: tv, Formatted: &txt}
		}
	}
	s.Rows = append(s.Rows, Row{Index: len(s.Rows), Cells: cells})
	return &s.Rows[len(s.Rows)-1]
}

// AppendPlaceholder adds the trailing new-row placeholder, unless one is already present.
func (s *Snapshot) AppendPlaceholder() {
	if n := len(s.Rows); n > 0 && s.Rows[n-1].IsNewRow {
		return
	}
	s.Rows = append(s.Rows, Row{Index: len(s.Rows), Cells: make([]Cell, len(s.Columns)), IsNewRow: true})
}

func (s *Snapshot) Cell(col, row int) Cell {
	if row < 0 || row >= len(s.Rows) {
		return Cell{}
	}
	cells := s.Rows[row].Cells
	if col < 0 || col >= len(cells) {
		return Cell{}
	}
	return cells[col]
}

// DataRowCount counts rows excluding the new-row placeholder.
func (s *Snapshot) DataRowCount() int {
	cnt := 0
	for _, r := range s.Rows {
		if !r.IsNewRow {
			cnt++
		}
	}
	return cnt
}

func (s *Snapshot) VisibleColumns() []Column {
	ret := make([]Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c.Visible {
			ret = append(ret, c)
		}
	}
	return ret
}

// RowColor returns the background of the row at absolute index i.
func (s *Snapshot) RowColor(i int) Color {
	if i%2 == 0 {
		return s.DefaultRowColor.Or(White)
	}
	return s.AlternateRowColor.Or(s.DefaultRowColor.Or(White))
}
