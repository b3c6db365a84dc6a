package report

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/crypto"
	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-gridprint/delivery"
	"github.com/soderasen-au/go-gridprint/printing"
)

// job is what every printer needs during one Print call.
type job struct {
	report   Report
	result   *ReportResult
	logger   *zerolog.Logger
	renderer *printing.Renderer
}

func newJob(r Report, driver string) (*job, *util.Result) {
	if res := r.Validate(); res != nil {
		return nil, res.With("Validate")
	}
	rResult, res := NewReportResult(r)
	if res != nil {
		return nil, res.With("NewReportResult")
	}
	logger := rResult.Logger.With().Str("report", *r.ID).Str("driver", driver).Logger()

	g := r.Grid
	if g == nil {
		if g, res = r.Source.Load(&logger); res != nil {
			return nil, res.LogWith(&logger, "LoadSource")
		}
	}
	if res := r.Layout.Title.LoadLogo(); res != nil {
		return nil, res.LogWith(&logger, "LoadLogo")
	}

	renderer := printing.NewRenderer(g, r.Layout, &logger)
	logger.Info().Msgf("printing %d rows, %d columns, direction %s", g.DataRowCount(), len(g.Columns), renderer.Session().Direction)
	return &job{report: r, result: rResult, logger: &logger, renderer: renderer}, nil
}

// finish digests the report file and uploads it when the report asks for it.
func (j *job) finish(pages []*printing.PageResult) *util.Result {
	j.result.collect(pages)
	j.logger.Info().Msgf("%d rows printed on %d pages", j.result.PrintedRows, j.result.Pages)
	if len(j.result.ClippedColumns) > 0 {
		j.logger.Warn().Msgf("columns %v don't fit the page and are not printed", j.result.ClippedColumns)
	}

	file := util.MaybeNil(j.result.ReportFile)
	buf, err := os.ReadFile(file)
	if err != nil {
		return util.Error("ReadReportFile", err)
	}
	digest, res := crypto.SHA2656Hex(buf)
	if res != nil {
		return res.With("SHA2656Hex")
	}
	j.result.Digest = digest

	if j.report.Upload == nil {
		return nil
	}
	uploader, res := delivery.NewUploader(*j.report.Upload, j.result.ID, j.logger)
	if res != nil {
		return res.LogWith(j.logger, "NewUploader")
	}
	location, res := uploader.Upload(file)
	if res != nil {
		return res.LogWith(j.logger, "Upload")
	}
	j.result.UploadLocation = location
	return nil
}
