package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/soderasen-au/go-common/util"
)

// AuditRecord is one line of the audit log: a report that was printed, or failed to.
type AuditRecord struct {
	Timestamp   time.Time
	ReportID    string
	ReportName  string
	Format      string
	ReportFile  string
	FileSize    int64
	Pages       int
	PrintedRows int
	Digest      string
	Error       string
}

func (f AuditRecord) GetCSVLine() []string {
	return []string{
		f.Timestamp.Format(time.RFC3339),
		f.ReportID,
		f.ReportName,
		f.Format,
		f.ReportFile,
		fmt.Sprintf("%d", f.FileSize),
		fmt.Sprintf("%d", f.Pages),
		fmt.Sprintf("%d", f.PrintedRows),
		f.Digest,
		f.Error,
	}
}

func GetCSVHeader() []string {
	return []string{"Timestamp", "ReportId", "ReportName", "Format", "FileName", "FileSize", "Pages", "TotalRows", "Digest", "Error"}
}

// NewAuditRecord describes the outcome of printing r; rr may be nil when the job never started.
func NewAuditRecord(r Report, rr *ReportResult, res *util.Result) AuditRecord {
	rec := AuditRecord{
		Timestamp:  time.Now(),
		ReportID:   util.MaybeNil(r.ID),
		ReportName: util.MaybeNil(r.Name),
	}
	if r.OutputFormat != nil {
		rec.Format = string(*r.OutputFormat)
	}
	if rr != nil {
		rec.ReportFile = util.MaybeNil(rr.ReportFile)
		rec.Pages = rr.Pages
		rec.PrintedRows = rr.PrintedRows
		rec.Digest = rr.Digest
		if fi, err := os.Stat(rec.ReportFile); err == nil {
			rec.FileSize = fi.Size()
		}
	}
	if res != nil {
		rec.Error = res.Error()
	}
	return rec
}

// AuditLog appends records to a CSV file, safe for concurrent print jobs.
type AuditLog struct {
	fileName string
	fd       *os.File
	writer   *csv.Writer
	mu       sync.Mutex
}

func (audit *AuditLog) Close() {
	audit.mu.Lock()
	defer audit.mu.Unlock()
	if audit.fd != nil {
		audit.writer.Flush()
		audit.fd.Close()
		audit.fd = nil
	}
}

func (audit *AuditLog) Record(r AuditRecord) *util.Result {
	audit.mu.Lock()
	defer audit.mu.Unlock()

	if audit.fd == nil {
		return util.MsgError("WriteRecord", "audit log is closed")
	}
	if err := audit.writer.Write(r.GetCSVLine()); err != nil {
		return util.Error("WriteRecord", err)
	}
	audit.writer.Flush()
	if err := audit.writer.Error(); err != nil {
		return util.Error("FlushRecord", err)
	}
	return nil
}

// OpenFile opens fn for appending; a new or empty file gets the header line first.
func (audit *AuditLog) OpenFile(fn string) *util.Result {
	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return util.Error("OpenFile", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return util.Error("Stat", err)
	}

	w := csv.NewWriter(f)
	if fi.Size() == 0 {
		if err := w.Write(GetCSVHeader()); err != nil {
			f.Close()
			return util.Error("WriteHeader", err)
		}
		w.Flush()
	}

	audit.fileName = fn
	audit.fd = f
	audit.writer = w
	return nil
}

func NewAuditLog(fn string) (*AuditLog, *util.Result) {
	auditLog := &AuditLog{}
	res := auditLog.OpenFile(fn)
	if res != nil {
		return nil, res.With("OpenFile")
	}

	return auditLog, nil
}
