package analysis

import (
	"errors"
	"fmt"

	"drivertree/pkg/contracts/domain"
)

// ErrNoCurrentData is returned by Prepare when the current period has no
// positive values.
var ErrNoCurrentData = errors.New("no positive values for current period")

// Context is the single fiscal week shown to the model.
type Context struct {
	Period     string
	FiscalWeek int
	Rows       []domain.YoYRecord
	// Table is Rows rendered as markdown in domain.AnalysisColumns order.
	Table string
}

// Prepare keeps the rows of period with a positive Value, picks the highest
// fiscal week among them and renders that week's rows.
func Prepare(records []domain.YoYRecord, period string) (*Context, error) {
	latest := 0
	found := false
	for _, rec := range records {
		if rec.TimePeriod != period || !domain.Positive(rec.Value) {
			continue
		}
		if !found || rec.FiscalWeek > latest {
			latest = rec.FiscalWeek
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoCurrentData, period)
	}

	var rows []domain.YoYRecord
	for _, rec := range records {
		if rec.TimePeriod == period && rec.FiscalWeek == latest && domain.Positive(rec.Value) {
			rows = append(rows, rec)
		}
	}

	return &Context{
		Period:     period,
		FiscalWeek: latest,
		Rows:       rows,
		Table:      RenderMarkdown(rows),
	}, nil
}

// Title is the page heading for the analysed week.
func (c *Context) Title() string {
	return fmt.Sprintf("Sales Performance Analysis: %s - Week %d", c.Period, c.FiscalWeek)
}
