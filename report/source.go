package report

import (
	"encoding/json"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/qlik-oss/enigma-go/v4"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-gridprint/grid"
)

const (
	SOURCE_XLSX      string = "xlsx"
	SOURCE_CSV       string = "csv"
	SOURCE_HYPERCUBE string = "hypercube"
)

// Source is where the grid of a report is read from.
type Source struct {
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty" bson:"kind,omitempty"`
	File  string `json:"file" yaml:"file" bson:"file"`
	Sheet string `json:"sheet,omitempty" yaml:"sheet,omitempty" bson:"sheet,omitempty"`

	// csv only
	ColumnsFile  string  `json:"columns_file,omitempty" yaml:"columns_file,omitempty" bson:"columns_file,omitempty"`
	Comma        string  `json:"comma,omitempty" yaml:"comma,omitempty" bson:"comma,omitempty"`
	DefaultWidth float64 `json:"default_width,omitempty" yaml:"default_width,omitempty" bson:"default_width,omitempty"`

	// PlaceholderRow appends the trailing new-row of editable grids, which is never printed.
	PlaceholderRow bool `json:"placeholder_row,omitempty" yaml:"placeholder_row,omitempty" bson:"placeholder_row,omitempty"`

	// grid style, unset values keep the grid defaults
	DefaultRowColor   grid.Color `json:"default_row_color,omitempty" yaml:"default_row_color,omitempty" bson:"default_row_color,omitempty"`
	AlternateRowColor grid.Color `json:"alternate_row_color,omitempty" yaml:"alternate_row_color,omitempty" bson:"alternate_row_color,omitempty"`
	ForeColor         grid.Color `json:"fore_color,omitempty" yaml:"fore_color,omitempty" bson:"fore_color,omitempty"`
	HeaderColor       grid.Color `json:"header_color,omitempty" yaml:"header_color,omitempty" bson:"header_color,omitempty"`
	Font              *grid.Font `json:"font,omitempty" yaml:"font,omitempty" bson:"font,omitempty"`
}

// kind defaults to the file extension.
func (s Source) kind() string {
	if s.Kind != "" {
		return strings.ToLower(s.Kind)
	}
	switch {
	case strings.HasSuffix(strings.ToLower(s.File), ".csv"):
		return SOURCE_CSV
	case strings.HasSuffix(strings.ToLower(s.File), ".json"):
		return SOURCE_HYPERCUBE
	}
	return SOURCE_XLSX
}

func (s Source) Validate() *util.Result {
	if s.File == "" {
		return util.MsgError("ValidateSource", "no source file")
	}
	switch s.kind() {
	case SOURCE_XLSX, SOURCE_CSV, SOURCE_HYPERCUBE:
	default:
		return util.MsgError("ValidateSource", "invalid source kind: "+s.Kind)
	}
	if utf8.RuneCountInString(s.Comma) > 1 {
		return util.MsgError("ValidateSource", "comma must be a single character")
	}
	return nil
}

func (s Source) Load(logger *zerolog.Logger) (*grid.Snapshot, *util.Result) {
	var g *grid.Snapshot
	var res *util.Result
	switch kind := s.kind(); kind {
	case SOURCE_XLSX:
		g, res = grid.LoadXLSX(s.File, grid.XLSXOptions{Sheet: s.Sheet, PlaceholderRow: s.PlaceholderRow})
	case SOURCE_CSV:
		var comma rune
		if s.Comma != "" {
			comma, _ = utf8.DecodeRuneInString(s.Comma)
		}
		g, res = grid.LoadCSV(s.File, grid.CSVOptions{
			Comma:          comma,
			ColumnsFile:    s.ColumnsFile,
			DefaultWidth:   s.DefaultWidth,
			PlaceholderRow: s.PlaceholderRow,
		})
	case SOURCE_HYPERCUBE:
		g, res = loadHyperCube(s.File)
		if res == nil && s.PlaceholderRow {
			g.AppendPlaceholder()
		}
	default:
		return nil, util.MsgError("LoadSource", "invalid source kind: "+kind)
	}
	if res != nil {
		return nil, res.With("Load " + s.kind())
	}

	g.DefaultRowColor = s.DefaultRowColor.Or(g.DefaultRowColor)
	g.AlternateRowColor = s.AlternateRowColor.Or(g.AlternateRowColor)
	g.ForeColor = s.ForeColor.Or(g.ForeColor)
	g.HeaderColor = s.HeaderColor.Or(g.HeaderColor)
	if s.Font != nil {
		g.Font = s.Font.Or(g.Font)
	}
	logger.Info().Msgf("loaded %s: %d columns, %d rows", s.File, len(g.Columns), g.DataRowCount())
	return g, nil
}

// loadHyperCube reads a hypercube layout saved as JSON (the qHyperCube of an object layout,
// with its data pages).
func loadHyperCube(file string) (*grid.Snapshot, *util.Result) {
	buf, err := os.ReadFile(file)
	if err != nil {
		return nil, util.Error("ReadFile", err)
	}
	cube := &enigma.HyperCube{}
	if err := json.Unmarshal(buf, cube); err != nil {
		return nil, util.Error("ParseHyperCube", err)
	}
	return grid.FromHyperCube(cube, nil)
}
