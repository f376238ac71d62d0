package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableResults   = "assessment_results"
	tableEvents    = "advisory_events"
	tableProfile   = "profile"
	tableSequence  = "global_sequence"
	profileRowID   = 1
	sequenceRowID  = 1
	maxBodyColumn  = 1 << 20
	shortTextLimit = 255
)

var (
	// ResultsColumns holds score summaries only: no answers, no severity
	// label.
	ResultsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "report_id", Type: field.TypeString, Size: 36},
		{Name: "scale_id", Type: field.TypeString, Size: 16},
		{Name: "score", Type: field.TypeInt},
		{Name: "max_score", Type: field.TypeInt},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
	}
	ResultsTable = &schema.Table{
		Name:       tableResults,
		Columns:    ResultsColumns,
		PrimaryKey: []*schema.Column{ResultsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "assessmentresult_scale_id", Columns: []*schema.Column{ResultsColumns[2]}},
			{Name: "assessmentresult_report_id", Columns: []*schema.Column{ResultsColumns[1]}},
		},
	}

	EventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString, Size: shortTextLimit},
		{Name: "model", Type: field.TypeString, Size: shortTextLimit},
		{Name: "purpose", Type: field.TypeString, Size: shortTextLimit},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: maxBodyColumn, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: maxBodyColumn, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: maxBodyColumn, Default: ""},
	}
	EventsTable = &schema.Table{
		Name:       tableEvents,
		Columns:    EventsColumns,
		PrimaryKey: []*schema.Column{EventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "advisoryevent_purpose", Columns: []*schema.Column{EventsColumns[5]}},
			{Name: "advisoryevent_success", Columns: []*schema.Column{EventsColumns[9]}},
		},
	}

	ProfileColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "nickname", Type: field.TypeString, Size: shortTextLimit},
		{Name: "student_id", Type: field.TypeString, Size: shortTextLimit, Default: ""},
		{Name: "agreed_to_terms", Type: field.TypeBool},
		{Name: "is_admin", Type: field.TypeBool, Default: false},
		{Name: "created_at", Type: field.TypeTime},
	}
	ProfileTable = &schema.Table{
		Name:       tableProfile,
		Columns:    ProfileColumns,
		PrimaryKey: []*schema.Column{ProfileColumns[0]},
	}

	SequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	SequenceTable = &schema.Table{
		Name:       tableSequence,
		Columns:    SequenceColumns,
		PrimaryKey: []*schema.Column{SequenceColumns[0]},
	}

	// Tables lists every table in migration order.
	Tables = []*schema.Table{
		SequenceTable,
		ResultsTable,
		EventsTable,
		ProfileTable,
	}
)

// migrate brings the database schema up to date. Columns and indexes are
// only ever added.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv,
		schema.WithDropColumn(false),
		schema.WithDropIndex(false),
	)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
