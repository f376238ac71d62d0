package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type profileRepo struct {
	drv *entsql.Driver
}

// Save replaces the stored profile.
func (r *profileRepo) Save(ctx context.Context, p ProfileRecord) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(tableProfile).
		Columns("id", "nickname", "student_id", "agreed_to_terms", "is_admin", "created_at").
		Values(profileRowID, p.Nickname, p.StudentID, p.AgreedToTerms, p.IsAdmin, p.CreatedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *profileRepo) Load(ctx context.Context) (*ProfileRecord, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("nickname", "student_id", "agreed_to_terms", "is_admin", "created_at").
		From(entsql.Table(tableProfile)).
		Where(entsql.EQ("id", profileRowID)).
		Limit(1)

	var out []ProfileRecord
	if err := scanAll(ctx, r.drv, sel, &out); err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (r *profileRepo) Clear(ctx context.Context) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(tableProfile).
		Where(entsql.EQ("id", profileRowID)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	return nil
}
