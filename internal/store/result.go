package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

var resultColumns = []string{
	"id", "report_id", "scale_id", "score", "max_score", "created_at", "sequence",
}

type resultRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *resultRepo) AppendResult(ctx context.Context, rec *ResultRecord) error {
	if rec.ID == "" || rec.ScaleID == "" {
		return errors.New("result record needs an id and a scale")
	}
	if rec.Score < 0 || rec.Score > rec.MaxScore {
		return fmt.Errorf("result %s: score %d outside [0, %d]", rec.ID, rec.Score, rec.MaxScore)
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(tableResults).
		Columns(resultColumns...).
		Values(rec.ID, rec.ReportID, rec.ScaleID, rec.Score, rec.MaxScore, rec.CreatedAt, seqNum).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save result %s: %w", rec.ID, err)
	}

	rec.Sequence = seqNum
	return nil
}

func (r *resultRepo) ListResults(ctx context.Context, opts QueryOpts) ([]ResultRecord, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(resultColumns...).
		From(entsql.Table(tableResults)).
		OrderBy(entsql.Desc("sequence"))
	applyOpts(sel, opts, "created_at")
	if opts.ScaleID != "" {
		sel.Where(entsql.EQ("scale_id", opts.ScaleID))
	}

	var out []ResultRecord
	if err := scanAll(ctx, r.drv, sel, &out); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return out, nil
}

func (r *resultRepo) ScoreHistogram(ctx context.Context) ([]ScoreCount, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("scale_id", "score", entsql.As(entsql.Count("*"), "n")).
		From(entsql.Table(tableResults)).
		GroupBy("scale_id", "score").
		OrderBy("scale_id", "score")

	var out []ScoreCount
	if err := scanAll(ctx, r.drv, sel, &out); err != nil {
		return nil, fmt.Errorf("score histogram: %w", err)
	}
	return out, nil
}
