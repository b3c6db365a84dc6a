package grid

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/soderasen-au/go-common/util"
)

// ColumnSpec describes one column of a CSV source; specs are read from a sidecar CSV file
// with the header `header,width,hidden,num_fmt,date_fmt`.
type ColumnSpec struct {
	Header  string  `csv:"header"`
	Width   float64 `csv:"width"`
	Hidden  bool    `csv:"hidden"`
	NumFmt  string  `csv:"num_fmt"`
	DateFmt string  `csv:"date_fmt"`
}

type CSVOptions struct {
	Comma          rune
	ColumnsFile    string
	DefaultWidth   float64
	PlaceholderRow bool
}

func newCSVReader(in io.Reader, comma rune) *csv.Reader {
	r := csv.NewReader(in)
	if comma != 0 {
		r.Comma = comma
	}
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r
}

func LoadColumnSpecs(file string, comma rune) ([]ColumnSpec, *util.Result) {
	f, err := os.Open(file)
	if err != nil {
		return nil, util.Error("OpenFile", err)
	}
	defer f.Close()
	return ReadColumnSpecs(f, comma)
}

func ReadColumnSpecs(in io.Reader, comma rune) ([]ColumnSpec, *util.Result) {
	specs := make([]ColumnSpec, 0)
	if err := gocsv.UnmarshalCSV(newCSVReader(in, comma), &specs); err != nil {
		return nil, util.Error("UnmarshalColumnSpecs", err)
	}
	return specs, nil
}

func LoadCSV(file string, opts CSVOptions) (*Snapshot, *util.Result) {
	f, err := os.Open(file)
	if err != nil {
		return nil, util.Error("OpenFile", err)
	}
	defer f.Close()

	var specs []ColumnSpec
	if opts.ColumnsFile != "" {
		var res *util.Result
		if specs, res = LoadColumnSpecs(opts.ColumnsFile, opts.Comma); res != nil {
			return nil, res.With("LoadColumnSpecs")
		}
	}
	return ReadCSV(f, specs, opts)
}

// ReadCSV reads a CSV whose first record holds the column headers. Specs, when given,
// override header text, width and visibility by position and supply number/date formats.
func ReadCSV(in io.Reader, specs []ColumnSpec, opts CSVOptions) (*Snapshot, *util.Result) {
	records, err := newCSVReader(in, opts.Comma).ReadAll()
	if err != nil {
		return nil, util.Error("ReadCSV", err)
	}

	s := NewSnapshot()
	if len(records) == 0 {
		if opts.PlaceholderRow {
			s.AppendPlaceholder()
		}
		return s, nil
	}

	headers := records[0]
	colCnt := len(headers)
	if len(specs) > colCnt {
		colCnt = len(specs)
	}
	for ci := 0; ci < colCnt; ci++ {
		header := ""
		if ci < len(headers) {
			header = strings.TrimSpace(headers[ci])
		}
		width := opts.DefaultWidth
		col := s.AddColumn(header, width)
		if ci < len(specs) {
			spec := specs[ci]
			if spec.Header != "" {
				col.Header = spec.Header
			}
			if spec.Width > 0 {
				col.Width = spec.Width
			}
			col.Visible = !spec.Hidden
		}
	}

	for _, rec := range records[1:] {
		values := make([]interface{}, colCnt)
		for ci := 0; ci < colCnt && ci < len(rec); ci++ {
			var spec *ColumnSpec
			if ci < len(specs) {
				spec = &specs[ci]
			}
			values[ci] = csvCell(rec[ci], spec)
		}
		s.AddRow(values...)
	}

	if opts.PlaceholderRow {
		s.AppendPlaceholder()
	}
	return s, nil
}

func csvCell(raw string, spec *ColumnSpec) interface{} {
	if raw == "" {
		return nil
	}
	if spec == nil || (spec.NumFmt == "" && spec.DateFmt == "") {
		return raw
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	txt := raw
	if spec.DateFmt != "" {
		txt = FormatDate(num, spec.DateFmt)
	} else if formatted, res := FormatNum(num, spec.NumFmt); res == nil {
		txt = formatted
	}
	return Cell{Value: num, Formatted: &txt}
}
