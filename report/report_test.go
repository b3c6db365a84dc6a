package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soderasen-au/go-common/loggers"
	"github.com/soderasen-au/go-common/util"
	"github.com/xuri/excelize/v2"

	"github.com/soderasen-au/go-gridprint/delivery"
	"github.com/soderasen-au/go-gridprint/grid"
	"github.com/soderasen-au/go-gridprint/printing"
)

const testRows = 40

func writeCSV(t *testing.T, dir string) string {
	t.Helper()
	buf := &strings.Builder{}
	buf.WriteString("Name,Amount,City\n")
	for i := 0; i < testRows; i++ {
		fmt.Fprintf(buf, "customer %d,%d.5,city %d\n", i, i*100, i%7)
	}
	file := filepath.Join(dir, "sales.csv")
	if err := os.WriteFile(file, []byte(buf.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

func testReport(id, source, dir string, format ReportFormat) Report {
	return Report{
		ID:   util.Ptr(id),
		Name: util.Ptr("sales " + id),
		Source: Source{
			File:        source,
			HeaderColor: grid.TitleBlue,
		},
		Layout: printing.Settings{
			Title: printing.TitleBlock{Header: "Sales", SubTitle1: "2024-01-01"},
		},
		Page:         Page{Paper: "a5", DPI: 30},
		OutputFormat: util.Ptr(format),
		OutputFolder: util.Ptr(dir),
		Logger:       loggers.CoreDebugLogger,
	}
}

func TestPrintFormats(t *testing.T) {
	dir := t.TempDir()
	source := writeCSV(t, dir)

	tests := []struct {
		format ReportFormat
		check  func(t *testing.T, rr *ReportResult)
	}{
		{REPORT_FORMAT_PDF, func(t *testing.T, rr *ReportResult) {
			buf, err := os.ReadFile(*rr.ReportFile)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.HasPrefix(buf, []byte("%PDF-")) {
				t.Errorf("%s is not a PDF", *rr.ReportFile)
			}
			if rr.Pages < 2 {
				t.Errorf("%d pages, want at least 2", rr.Pages)
			}
		}},
		{REPORT_FORMAT_PNG, func(t *testing.T, rr *ReportResult) {
			if len(rr.Files) != rr.Pages {
				t.Errorf("%d files for %d pages", len(rr.Files), rr.Pages)
			}
			for _, f := range rr.Files {
				if !strings.HasSuffix(f, ".png") {
					t.Errorf("preview file %s", f)
				}
			}
			if *rr.ReportFile != rr.Files[0] {
				t.Errorf("ReportFile = %s, want the first page", *rr.ReportFile)
			}
		}},
		{REPORT_FORMAT_XLSX, func(t *testing.T, rr *ReportResult) {
			f, err := excelize.OpenFile(*rr.ReportFile)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			sheets := f.GetSheetList()
			if len(sheets) != rr.Pages {
				t.Fatalf("sheets = %v for %d pages", sheets, rr.Pages)
			}
			rows := 0
			for i, sheet := range sheets {
				if sheet != fmt.Sprintf("page-%d", i+1) {
					t.Errorf("sheet %d named %s", i, sheet)
				}
				title, _ := f.GetCellValue(sheet, "A1")
				header, _ := f.GetCellValue(sheet, "A5")
				if title != "Sales" || header != "Name" {
					t.Errorf("%s: title %q, header %q", sheet, title, header)
				}
				all, err := f.GetRows(sheet)
				if err != nil {
					t.Fatal(err)
				}
				for _, row := range all[5:] {
					if len(row) > 0 && strings.HasPrefix(row[0], "customer") {
						rows++
					}
				}
			}
			if rows != testRows {
				t.Errorf("%d data rows over all sheets, want %d", rows, testRows)
			}
		}},
		{REPORT_FORMAT_JSON, func(t *testing.T, rr *ReportResult) {
			buf, err := os.ReadFile(*rr.ReportFile)
			if err != nil {
				t.Fatal(err)
			}
			var dump struct {
				Pages []json.RawMessage `json:"pages"`
			}
			if err := json.Unmarshal(buf, &dump); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if len(dump.Pages) != rr.Pages {
				t.Errorf("%d pages dumped, want %d", len(dump.Pages), rr.Pages)
			}
		}},
	}

	printer := NewBuiltInReportPrinter()
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			r := testReport("r-"+string(tt.format), source, dir, tt.format)
			if res := printer.Print(context.Background(), r); res != nil {
				t.Fatalf("Print() error = %v", res)
			}
			rr, res := printer.GetReportResult(*r.ID)
			if res != nil {
				t.Fatalf("GetReportResult() error = %v", res)
			}
			if rr.Result != nil {
				t.Errorf("Result = %v", rr.Result)
			}
			if rr.PrintedRows != testRows {
				t.Errorf("PrintedRows = %d, want %d", rr.PrintedRows, testRows)
			}
			if len(rr.Digest) != 64 {
				t.Errorf("Digest = %q", rr.Digest)
			}
			if _, err := os.Stat(*rr.ReportFile); err != nil {
				t.Errorf("report file: %v", err)
			}
			tt.check(t, rr)
		})
	}
}

func TestXLSXPagesMatchPDF(t *testing.T) {
	dir := t.TempDir()
	source := writeCSV(t, dir)
	printer := NewBuiltInReportPrinter()

	pages := make(map[ReportFormat]int)
	for _, format := range []ReportFormat{REPORT_FORMAT_PDF, REPORT_FORMAT_XLSX, REPORT_FORMAT_JSON} {
		r := testReport("same-"+string(format), source, dir, format)
		if res := printer.Print(context.Background(), r); res != nil {
			t.Fatalf("Print(%s) error = %v", format, res)
		}
		rr, _ := printer.GetReportResult(*r.ID)
		pages[format] = rr.Pages
	}
	if pages[REPORT_FORMAT_PDF] != pages[REPORT_FORMAT_XLSX] || pages[REPORT_FORMAT_PDF] != pages[REPORT_FORMAT_JSON] {
		t.Errorf("page counts differ: %v", pages)
	}
}

func TestPrintErrors(t *testing.T) {
	dir := t.TempDir()
	source := writeCSV(t, dir)

	tests := []struct {
		name   string
		modify func(r *Report)
	}{
		{"InvalidFormat", func(r *Report) { r.OutputFormat = util.Ptr(ReportFormat("docx")) }},
		{"MissingSource", func(r *Report) { r.Source.File = filepath.Join(dir, "missing.csv") }},
		{"NoSource", func(r *Report) { r.Source.File = "" }},
		{"InvalidDirection", func(r *Report) { r.Layout.Direction = "up" }},
		{"InvalidUpload", func(r *Report) { r.Upload = &delivery.Config{KeyFile: "key.pem"} }},
		{"MissingLogo", func(r *Report) { r.Layout.Title.LogoFile = filepath.Join(dir, "logo.png") }},
		{"MissingOutputFolder", func(r *Report) { r.OutputFolder = util.Ptr(filepath.Join(dir, "no", "such")) }},
	}
	printer := NewBuiltInReportPrinter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testReport("err-"+tt.name, source, dir, REPORT_FORMAT_PDF)
			tt.modify(&r)
			if res := printer.Print(context.Background(), r); res == nil {
				t.Errorf("Print() should fail")
			}
		})
	}
}

func TestPrintGrid(t *testing.T) {
	g := grid.NewSnapshot()
	g.AddColumn("نام", 150)
	g.AddColumn("مبلغ", 100)
	for i := 0; i < 5; i++ {
		g.AddRow(fmt.Sprintf("ردیف %d", i), i)
	}
	g.AppendPlaceholder()

	dir := t.TempDir()
	r := Report{
		ID:           util.Ptr("grid"),
		Grid:         g,
		OutputFolder: util.Ptr(dir),
		LogFolder:    util.Ptr(dir),
	}
	printer := NewBuiltInReportPrinter()
	if res := printer.Print(context.Background(), r); res != nil {
		t.Fatalf("Print() error = %v", res)
	}
	rr, res := printer.GetReportResult("grid")
	if res != nil {
		t.Fatal(res)
	}
	if *rr.ReportFile != filepath.Join(dir, "grid.pdf") {
		t.Errorf("ReportFile = %s", *rr.ReportFile)
	}
	if rr.LogFile == nil {
		t.Fatalf("no log file")
	}
	if _, err := os.Stat(*rr.LogFile); err != nil {
		t.Errorf("log file: %v", err)
	}
	if rr.PrintedRows != 5 || rr.Pages != 1 {
		t.Errorf("%d rows on %d pages", rr.PrintedRows, rr.Pages)
	}
}

func TestReportFormat(t *testing.T) {
	tests := []struct {
		format ReportFormat
		valid  bool
	}{
		{REPORT_FORMAT_PDF, true},
		{REPORT_FORMAT_PNG, true},
		{REPORT_FORMAT_XLSX, true},
		{REPORT_FORMAT_JSON, true},
		{"html", false},
	}
	for _, tt := range tests {
		if got := tt.format.IsValid(); got != tt.valid {
			t.Errorf("%s.IsValid() = %v", tt.format, got)
		}
	}
	f := ReportFormat("html")
	f.MaybeDefault()
	if f != REPORT_FORMAT_PDF {
		t.Errorf("MaybeDefault() = %s", f)
	}
}

func TestReportValidate(t *testing.T) {
	r := Report{Name: util.Ptr("a/b\\c"), Source: Source{File: "x.csv"}}
	if res := r.Validate(); res != nil {
		t.Fatalf("Validate() error = %v", res)
	}
	if r.ID == nil || len(*r.ID) != len("20060102150405")+9 {
		t.Errorf("ID = %v", util.MaybeNil(r.ID))
	}
	if *r.OutputFormat != REPORT_FORMAT_PDF {
		t.Errorf("OutputFormat = %s", *r.OutputFormat)
	}
	if r.OutputFolder == nil || r.LogFolder == nil {
		t.Errorf("folders should default to the working directory")
	}
	if got := r.baseName(); got != "a_b_c" {
		t.Errorf("baseName() = %s", got)
	}
	if !r.IsValid() {
		t.Errorf("validated report should be valid")
	}
}

func TestPrintMissingFontFile(t *testing.T) {
	dir := t.TempDir()
	source := writeCSV(t, dir)
	printer := NewBuiltInReportPrinter()

	for _, format := range []ReportFormat{REPORT_FORMAT_XLSX, REPORT_FORMAT_JSON} {
		t.Run(string(format), func(t *testing.T) {
			r := testReport("font-"+string(format), source, dir, format)
			r.Source.Font = &grid.Font{Family: "Vazir", Size: 9, File: filepath.Join(dir, "missing.ttf")}
			if res := printer.Print(context.Background(), r); res == nil {
				t.Fatalf("Print() should fail when the font file is missing")
			}
			rr, res := printer.GetReportResult(*r.ID)
			if res != nil {
				t.Fatalf("GetReportResult() error = %v", res)
			}
			if rr.Result == nil {
				t.Errorf("the failure should be kept in the report result")
			}
			if _, err := os.Stat(*rr.ReportFile); !os.IsNotExist(err) {
				t.Errorf("no report file should be written, stat = %v", err)
			}
		})
	}
}
