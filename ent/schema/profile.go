package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// Profile is the single-row session record created at consent.
type Profile struct {
	ent.Schema
}

func (Profile) Fields() []ent.Field {
	return []ent.Field{
		field.String("nickname").
			NotEmpty(),
		field.String("student_id").
			Optional().
			Default(""),
		field.Bool("agreed_to_terms"),
		field.Bool("is_admin").
			Default(false),
		field.Time("created_at"),
	}
}
