package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/mindharmony/mindharmony/internal/assessment"
	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/scoring"
	"github.com/mindharmony/mindharmony/internal/store"
)

// Record converts a result into its stored summary. Answers and the severity
// label are dropped.
func Record(reportID string, res assessment.Result) store.ResultRecord {
	return store.ResultRecord{
		ID:        res.ID,
		ReportID:  reportID,
		ScaleID:   string(res.ScaleID),
		Score:     res.Score,
		MaxScore:  res.MaxScore,
		CreatedAt: res.Timestamp,
	}
}

// SaveResult stores the summary of res under the report id.
func SaveResult(ctx context.Context, repo store.ResultRepo, reportID string, res assessment.Result) error {
	rec := Record(reportID, res)
	if err := repo.AppendResult(ctx, &rec); err != nil {
		return fmt.Errorf("save result summary: %w", err)
	}
	return nil
}

// FromRecords rebuilds a report from the stored summaries of reportID, in
// submission order. Severity is re-derived from each score. The restored
// results carry no answers.
func FromRecords(owner, reportID string, recs []store.ResultRecord) (*Report, error) {
	var matched []store.ResultRecord
	for _, rec := range recs {
		if rec.ReportID == reportID {
			matched = append(matched, rec)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("report %s: %w", reportID, store.ErrNotFound)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Sequence < matched[j].Sequence })

	results := make([]assessment.Result, 0, len(matched))
	for _, rec := range matched {
		s, err := instrument.Lookup(instrument.ScaleID(rec.ScaleID))
		if err != nil {
			return nil, fmt.Errorf("result %s: %w", rec.ID, err)
		}
		band, err := scoring.Classify(s, rec.Score)
		if err != nil {
			return nil, fmt.Errorf("result %s: %w", rec.ID, err)
		}
		results = append(results, assessment.Result{
			ID:            rec.ID,
			Timestamp:     rec.CreatedAt,
			ScaleID:       s.ID,
			Score:         rec.Score,
			MaxScore:      rec.MaxScore,
			SeverityLabel: band.Level,
		})
	}

	r := Aggregate(owner, results...)
	r.ID, r.CycleID = reportID, reportID
	return r, nil
}
