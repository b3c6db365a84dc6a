package printing

import (
	"context"
)

// PageSource hands out a fresh canvas and its geometry for each page of a job.
type PageSource interface {
	NewPage() (Canvas, Geometry, error)
}

// Run drives a whole print job: it restarts cur at the first row and the configured start page,
// then renders pages until no rows remain. Cancelling ctx stops the job between pages; the pages
// already rendered are returned and cur tells how far the job got.
func Run(ctx context.Context, r *Renderer, src PageSource, cur *Cursor) ([]*PageResult, error) {
	cur.Reset(r.Session().StartFrom)
	r.logger.Debug().Msgf("print job started: %d rows, %d columns", r.grid.DataRowCount(), len(r.grid.Columns))

	results := make([]*PageResult, 0)
	for {
		if err := ctx.Err(); err != nil {
			r.logger.Debug().Msgf("print job abandoned at row %d", cur.NextRow)
			return results, err
		}
		c, geo, err := src.NewPage()
		if err != nil {
			return results, err
		}
		res, err := r.RenderPage(c, geo, cur)
		results = append(results, res)
		if err != nil {
			return results, err
		}
		if !res.HasMorePages {
			r.logger.Debug().Msgf("print job done: %d pages", len(results))
			return results, nil
		}
	}
}
