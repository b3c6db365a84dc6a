package report

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"
	"github.com/soderasen-au/go-common/util"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Batch is the file layout of several reports sharing output and log folders.
type Batch struct {
	OutputFolder string   `json:"output_folder,omitempty" yaml:"output_folder,omitempty"`
	LogFolder    string   `json:"log_folder,omitempty" yaml:"log_folder,omitempty"`
	Reports      []Report `json:"reports" yaml:"reports"`
}

// LoadReports reads a YAML (or JSON) file holding either a batch or a single report.
// Folders set on the batch apply to the reports that set none.
func LoadReports(file string) ([]Report, *util.Result) {
	buf, err := os.ReadFile(file)
	if err != nil {
		return nil, util.Error("ReadFile", err)
	}

	batch := Batch{}
	if err := yaml.Unmarshal(buf, &batch); err != nil {
		return nil, util.Error("ParseBatch", err)
	}
	if len(batch.Reports) == 0 {
		r := Report{}
		if err := yaml.Unmarshal(buf, &r); err != nil {
			return nil, util.Error("ParseReport", err)
		}
		batch.Reports = []Report{r}
	}

	for i := range batch.Reports {
		r := &batch.Reports[i]
		if r.OutputFolder == nil && batch.OutputFolder != "" {
			r.OutputFolder = util.Ptr(batch.OutputFolder)
		}
		if r.LogFolder == nil && batch.LogFolder != "" {
			r.LogFolder = util.Ptr(batch.LogFolder)
		}
	}
	return batch.Reports, nil
}

// PrintAll prints reports with at most limit jobs at a time. Every job has its own cursor and
// output, so they share nothing but the printer's result registry. All reports are attempted;
// the returned map holds the failures by report index. Reports without an id are given one.
func PrintAll(ctx context.Context, printer IReportPrinter, reports []Report, limit int, logger *zerolog.Logger) map[int]*util.Result {
	if logger == nil {
		logger = loggers.NullLogger
	}
	if limit <= 0 {
		limit = 1
	}

	// results are looked up by id afterwards
	for i := range reports {
		if reports[i].ID == nil {
			reports[i].ID = util.Ptr(NewReportID())
		}
	}

	failures := make([]*util.Result, len(reports))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range reports {
		i, r := i, reports[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				failures[i] = util.Error("Cancelled", err)
				return nil
			}
			if res := printer.Print(gctx, r); res != nil {
				logger.Error().Msgf("report[%d] %s failed: %s", i, util.MaybeNil(r.Name), res.Error())
				failures[i] = res
				return nil
			}
			logger.Info().Msgf("report[%d] %s done", i, util.MaybeNil(r.Name))
			return nil
		})
	}
	_ = g.Wait()

	ret := make(map[int]*util.Result)
	for i, res := range failures {
		if res != nil {
			ret[i] = res
		}
	}
	return ret
}
