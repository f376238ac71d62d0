package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AssessmentResult is the stored summary of one submitted questionnaire.
// Answers and the severity label are never persisted; severity is derived
// from the score when read.
type AssessmentResult struct {
	ent.Schema
}

func (AssessmentResult) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			MaxLen(36).
			Immutable(),
		field.String("report_id").
			MaxLen(36).
			Immutable(),
		field.String("scale_id").
			MaxLen(16).
			Immutable().
			Comment("PHQ-9 or GAD-7"),
		field.Int("score").
			NonNegative().
			Immutable(),
		field.Int("max_score").
			Positive().
			Immutable(),
		field.Time("created_at").
			Immutable(),
		field.Int64("sequence").
			Unique().
			Immutable(),
	}
}

func (AssessmentResult) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("scale_id"),
		index.Fields("report_id"),
	}
}
