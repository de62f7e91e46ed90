package stats

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/newstype/internal/model"
	"github.com/verte-zerg/newstype/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions []model.SessionAggregate
	CharAggs []model.CharAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	charAggs, err := st.ListCharAggregatesForSessions(ctx, sessionIDs(sessions))
	if err != nil {
		return Report{}, err
	}
	return Report{Sessions: sessions, CharAggs: charAggs}, nil
}

// Render prints the full report.
func (r Report) Render(w io.Writer, charLimit int) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if len(r.Sessions) == 0 {
		return nil
	}
	if err := RenderCategoryTable(w, r.Sessions); err != nil {
		return err
	}
	if top := TopCharsByFrequency(r.CharAggs, 10); len(top) > 0 {
		labels := make([]string, len(top))
		for i, ch := range top {
			labels[i] = CharLabel(ch)
		}
		if _, err := fmt.Fprintf(w, "Most typed: %s\n\n", strings.Join(labels, " ")); err != nil {
			return err
		}
	}
	return RenderCharTable(w, r.CharAggs, charLimit)
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}
