package report

import (
	"context"

	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-gridprint/canvas/pdf"
	"github.com/soderasen-au/go-gridprint/printing"
)

// PdfReportPrinter prints a report into one PDF document.
type PdfReportPrinter struct {
	ReportPrinterBase
}

func NewPdfReportPrinter() *PdfReportPrinter {
	p := &PdfReportPrinter{}
	p.ReportResults = make(map[string]*ReportResult)
	return p
}

func (p *PdfReportPrinter) Print(ctx context.Context, r Report) *util.Result {
	j, res := newJob(r, "pdf")
	if res != nil {
		return res.With("NewJob")
	}
	defer p.setReportResult(j.result.ID, j.result)
	logger := j.logger

	doc := pdf.New(pdf.Options{
		Paper:     r.Page.Paper,
		Landscape: r.Page.Landscape,
		Margins:   r.Page.margins(),
		Compress:  r.Page.Compress,
		Title:     util.MaybeNil(r.Name),
	}, logger)

	pages, err := printing.Run(ctx, j.renderer, doc, printing.NewCursor(j.renderer.Session().StartFrom))
	if err != nil {
		j.result.Result = util.Error("RenderPDF", err)
		return j.result.Result.LogWith(logger, "Run")
	}

	if res := doc.Save(*j.result.ReportFile); res != nil {
		j.result.Result = res
		return res.LogWith(logger, "SavePDF")
	}
	logger.Info().Msgf("report saved as [%s]", *j.result.ReportFile)

	if res := j.finish(pages); res != nil {
		j.result.Result = res
		return res.With("Finish")
	}
	return nil
}
