package report

import (
	"context"

	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-gridprint/canvas/pdf"
	"github.com/soderasen-au/go-gridprint/canvas/record"
	"github.com/soderasen-au/go-gridprint/printing"
)

// JsonReportPrinter writes the draw commands of every page, measured with PDF metrics.
type JsonReportPrinter struct {
	ReportPrinterBase
}

func NewJsonReportPrinter() *JsonReportPrinter {
	p := &JsonReportPrinter{}
	p.ReportResults = make(map[string]*ReportResult)
	return p
}

func (p *JsonReportPrinter) Print(ctx context.Context, r Report) *util.Result {
	j, res := newJob(r, "json")
	if res != nil {
		return res.With("NewJob")
	}
	defer p.setReportResult(j.result.ID, j.result)
	logger := j.logger

	size, _ := printing.PaperSize(r.Page.Paper, r.Page.Landscape)
	measurer := pdf.NewMeasurer()
	rec := record.New(printing.NewGeometry(size.W, size.H, r.Page.margins()), measurer)
	pages, err := printing.Run(ctx, j.renderer, rec, printing.NewCursor(j.renderer.Session().StartFrom))
	if err == nil {
		err = measurer.Err()
	}
	if err != nil {
		j.result.Result = util.Error("RenderDrawLog", err)
		return j.result.Result.LogWith(logger, "Run")
	}

	if res := rec.Save(*j.result.ReportFile); res != nil {
		j.result.Result = res
		return res.LogWith(logger, "SaveDrawLog")
	}
	logger.Info().Msgf("report saved as [%s]", *j.result.ReportFile)

	if res := j.finish(pages); res != nil {
		j.result.Result = res
		return res.With("Finish")
	}
	return nil
}
