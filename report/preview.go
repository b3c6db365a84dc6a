package report

import (
	"context"

	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-gridprint/canvas/raster"
	"github.com/soderasen-au/go-gridprint/printing"
)

// PreviewPrinter renders a report as images, one PNG file per page.
type PreviewPrinter struct {
	ReportPrinterBase
}

func NewPreviewPrinter() *PreviewPrinter {
	p := &PreviewPrinter{}
	p.ReportResults = make(map[string]*ReportResult)
	return p
}

func (p *PreviewPrinter) Print(ctx context.Context, r Report) *util.Result {
	j, res := newJob(r, "preview")
	if res != nil {
		return res.With("NewJob")
	}
	defer p.setReportResult(j.result.ID, j.result)
	logger := j.logger

	preview := raster.New(raster.Options{
		Paper:     r.Page.Paper,
		Landscape: r.Page.Landscape,
		Margins:   r.Page.margins(),
		DPI:       r.Page.DPI,
	}, logger)

	pages, err := printing.Run(ctx, j.renderer, preview, printing.NewCursor(j.renderer.Session().StartFrom))
	if err != nil {
		j.result.Result = util.Error("RenderPreview", err)
		return j.result.Result.LogWith(logger, "Run")
	}

	files, res := preview.WritePNG(util.MaybeNil(r.OutputFolder), r.baseName())
	if res != nil {
		j.result.Result = res
		return res.LogWith(logger, "WritePNG")
	}
	j.result.Files = files
	if len(files) > 0 {
		j.result.ReportFile = util.Ptr(files[0])
	}

	if res := j.finish(pages); res != nil {
		j.result.Result = res
		return res.With("Finish")
	}
	return nil
}
