package report

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-gridprint/delivery"
	"github.com/soderasen-au/go-gridprint/grid"
	"github.com/soderasen-au/go-gridprint/printing"
)

type ReportFormat string

const (
	REPORT_FORMAT_PDF  ReportFormat = "pdf"
	REPORT_FORMAT_PNG  ReportFormat = "png"
	REPORT_FORMAT_XLSX ReportFormat = "xlsx"
	REPORT_FORMAT_JSON ReportFormat = "json"
)

func (f ReportFormat) IsPdf() bool {
	return f == REPORT_FORMAT_PDF
}

// IsPreview is true for the raster preview, one PNG per page.
func (f ReportFormat) IsPreview() bool {
	return f == REPORT_FORMAT_PNG
}

func (f ReportFormat) IsExcel() bool {
	return f == REPORT_FORMAT_XLSX
}

func (f ReportFormat) IsJson() bool {
	return f == REPORT_FORMAT_JSON
}

func (f ReportFormat) IsValid() bool {
	return f.IsPdf() || f.IsPreview() || f.IsExcel() || f.IsJson()
}

func (f *ReportFormat) MaybeDefault() {
	if !f.IsValid() {
		*f = REPORT_FORMAT_PDF
	}
}

type IReportPrinter interface {
	Print(ctx context.Context, r Report) *util.Result
	GetReportResult(id string) (*ReportResult, *util.Result)
}

type ReportPrinterBase struct {
	ReportResults map[string]*ReportResult //report-id -> report-results
	mu            sync.RWMutex
}

func (p *ReportPrinterBase) GetReportResult(id string) (*ReportResult, *util.Result) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if result, ok := p.ReportResults[id]; ok {
		return result, nil
	}
	return nil, util.MsgError("GetReportResult", "report id doesn't exists")
}

func (p *ReportPrinterBase) setReportResult(id string, rr *ReportResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ReportResults == nil {
		p.ReportResults = make(map[string]*ReportResult)
	}
	p.ReportResults[id] = rr
}

type Page struct {
	Paper     string            `json:"paper,omitempty" yaml:"paper,omitempty" bson:"paper,omitempty"`
	Landscape bool              `json:"landscape,omitempty" yaml:"landscape,omitempty" bson:"landscape,omitempty"`
	Margins   *printing.Margins `json:"margins,omitempty" yaml:"margins,omitempty" bson:"margins,omitempty"`
	// DPI of the png preview
	DPI      float64 `json:"dpi,omitempty" yaml:"dpi,omitempty" bson:"dpi,omitempty"`
	Compress bool    `json:"compress,omitempty" yaml:"compress,omitempty" bson:"compress,omitempty"`
}

func (p Page) margins() printing.Margins {
	if p.Margins == nil {
		return printing.DefaultMargins()
	}
	return *p.Margins
}

// Report is one print job: where the grid comes from, how it is laid out and where it goes.
type Report struct {
	ID   *string `json:"id,omitempty" yaml:"id,omitempty" bson:"id,omitempty"`
	Name *string `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`

	// input, Grid takes precedence over Source
	Source Source         `json:"source" yaml:"source" bson:"source"`
	Grid   *grid.Snapshot `json:"-" yaml:"-" bson:"-"`

	// layout
	Layout printing.Settings `json:"layout" yaml:"layout" bson:"layout"`
	Page   Page              `json:"page" yaml:"page" bson:"page"`

	// output
	OutputFormat *ReportFormat    `json:"output_format,omitempty" yaml:"output_format,omitempty" bson:"output_format,omitempty"`
	OutputFolder *string          `json:"output_folder,omitempty" yaml:"output_folder,omitempty" bson:"output_folder,omitempty"`
	Upload       *delivery.Config `json:"upload,omitempty" yaml:"upload,omitempty" bson:"upload,omitempty"`

	// logging
	LogFolder *string         `json:"log_folder,omitempty" yaml:"log_folder,omitempty" bson:"log_folder,omitempty"`
	Logger    *zerolog.Logger `json:"-" yaml:"-" bson:"-"`
}

func (r Report) IsValid() bool {
	if r.ID == nil || r.OutputFormat == nil || r.OutputFolder == nil {
		return false
	}

	if !r.OutputFormat.IsValid() {
		return false
	}

	if r.Grid == nil && r.Source.File == "" {
		return false
	}

	return true
}

func (r *Report) Validate() *util.Result {
	if r.Grid == nil {
		if res := r.Source.Validate(); res != nil {
			return res.With("ValidateReport")
		}
	}

	if r.ID == nil {
		r.ID = util.Ptr(NewReportID())
	}

	if r.OutputFormat == nil {
		r.OutputFormat = new(ReportFormat)
		r.OutputFormat.MaybeDefault()
	} else if !r.OutputFormat.IsValid() {
		return util.MsgError("ValidateReport", "invalid output format: "+string(*r.OutputFormat))
	}

	if _, ok := printing.ParseDirection(string(r.Layout.Direction)); !ok {
		return util.MsgError("ValidateReport", "invalid direction: "+string(r.Layout.Direction))
	}

	if r.Upload != nil {
		if res := r.Upload.Validate(); res != nil {
			return res.With("ValidateReport")
		}
	}

	if r.OutputFolder == nil {
		r.OutputFolder = new(string)
	}

	if r.LogFolder == nil {
		r.LogFolder = new(string)
	}

	return nil
}

// NewReportID returns a sortable unique id: the local time followed by a random suffix.
func NewReportID() string {
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102150405"), uuid.NewString()[:8])
}

// baseName is the output file name without extension.
func (r Report) baseName() string {
	if r.Name != nil && len(*r.Name) > 0 {
		rn := strings.ReplaceAll(*r.Name, "/", "_")
		return strings.ReplaceAll(rn, "\\", "_")
	}
	return util.MaybeNil(r.ID)
}

type ReportResult struct {
	ID             string          `json:"id,omitempty" yaml:"id,omitempty"`
	Result         *util.Result    `json:"result,omitempty" yaml:"result,omitempty" bson:"result,omitempty"`
	ReportFile     *string         `json:"report_file,omitempty" yaml:"report_file,omitempty" bson:"report_file,omitempty"`
	Files          []string        `json:"files,omitempty" yaml:"files,omitempty" bson:"files,omitempty"`
	Digest         string          `json:"digest,omitempty" yaml:"digest,omitempty" bson:"digest,omitempty"`
	UploadLocation string          `json:"upload_location,omitempty" yaml:"upload_location,omitempty" bson:"upload_location,omitempty"`
	LogFile        *string         `json:"log_file,omitempty" yaml:"log_file,omitempty" bson:"log_file,omitempty"`
	Logger         *zerolog.Logger `json:"-,omitempty" yaml:"-,omitempty" bson:"-"`
	PrintedRows    int             `json:"printed_rows,omitempty" yaml:"printed_rows,omitempty"`
	Pages          int             `json:"pages,omitempty" yaml:"pages,omitempty"`
	ClippedColumns []int           `json:"clipped_columns,omitempty" yaml:"clipped_columns,omitempty"`
}

func NewReportResult(r Report) (*ReportResult, *util.Result) {
	if !r.IsValid() {
		return nil, util.MsgError("Check", "invalid report")
	}

	rr := ReportResult{ID: *r.ID}

	rf := filepath.Join(util.MaybeNil(r.OutputFolder), fmt.Sprintf("%s.%s", r.baseName(), *r.OutputFormat))
	rr.ReportFile = &rf

	if r.Logger != nil {
		rr.Logger = r.Logger
	} else {
		lf := filepath.Join(util.MaybeNil(r.LogFolder), fmt.Sprintf("log-%s.%s", util.MaybeNil(r.ID), "log"))
		rr.LogFile = &lf
		logger, err := loggers.GetLogger(lf)
		if err != nil {
			return nil, util.Error("GetLogger", err)
		}
		rr.Logger = logger
	}

	return &rr, nil
}

// collect sums up the page results of a finished job.
func (rr *ReportResult) collect(pages []*printing.PageResult) {
	rr.Pages = len(pages)
	rr.PrintedRows = 0
	for _, pr := range pages {
		rr.PrintedRows += len(pr.Rows)
	}
	if len(pages) > 0 {
		rr.ClippedColumns = pages[0].Clipped
	}
}
