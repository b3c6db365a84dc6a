package report

import (
	"context"

	"github.com/soderasen-au/go-common/util"
)

type BuiltInReportPrinter struct {
	PdfPrinter     *PdfReportPrinter
	PreviewPrinter *PreviewPrinter
	ExcelPrinter   *ExcelPagingPrinter
	JsonPrinter    *JsonReportPrinter

	// Audit, when set, gets one record per Print call.
	Audit *AuditLog
}

func NewBuiltInReportPrinter() *BuiltInReportPrinter {
	p := &BuiltInReportPrinter{
		PdfPrinter:     NewPdfReportPrinter(),
		PreviewPrinter: NewPreviewPrinter(),
		ExcelPrinter:   NewExcelPagingPrinter(),
		JsonPrinter:    NewJsonReportPrinter(),
	}
	return p
}

func (p BuiltInReportPrinter) GetReportResult(id string) (*ReportResult, *util.Result) {
	if result, res := p.PdfPrinter.GetReportResult(id); res == nil {
		return result, nil
	}
	if result, res := p.PreviewPrinter.GetReportResult(id); res == nil {
		return result, nil
	}
	if result, res := p.ExcelPrinter.GetReportResult(id); res == nil {
		return result, nil
	}
	if result, res := p.JsonPrinter.GetReportResult(id); res == nil {
		return result, nil
	}
	return nil, util.MsgError("ReportFiles", "report id doesn't exists")
}

func (p *BuiltInReportPrinter) Print(ctx context.Context, r Report) *util.Result {
	if r.OutputFormat == nil {
		r.OutputFormat = util.Ptr(REPORT_FORMAT_PDF)
	}
	if r.ID == nil {
		r.ID = util.Ptr(NewReportID())
	}

	res := p.print(ctx, r)
	if p.Audit != nil {
		rr, _ := p.GetReportResult(*r.ID)
		if ares := p.Audit.Record(NewAuditRecord(r, rr, res)); ares != nil && r.Logger != nil {
			r.Logger.Warn().Msgf("audit: %s", ares.Error())
		}
	}
	return res
}

func (p *BuiltInReportPrinter) print(ctx context.Context, r Report) *util.Result {
	if r.OutputFormat.IsPdf() {
		return p.PdfPrinter.Print(ctx, r)
	} else if r.OutputFormat.IsPreview() {
		return p.PreviewPrinter.Print(ctx, r)
	} else if r.OutputFormat.IsExcel() {
		return p.ExcelPrinter.Print(ctx, r)
	} else if r.OutputFormat.IsJson() {
		return p.JsonPrinter.Print(ctx, r)
	} else {
		return util.MsgError("Print", "built_in printer doesn't support output format: "+string(*r.OutputFormat))
	}
}
