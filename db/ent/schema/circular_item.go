package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

type CircularItem struct{ ent.Schema }

func (CircularItem) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "circular_items"},
	}
}

func (CircularItem) Fields() []ent.Field {
	return []ent.Field{
		field.String("retailer").NotEmpty(),
		field.String("item_name").NotEmpty(),
		field.Float("price").
			SchemaType(map[string]string{dialect.Postgres: "numeric(12,2)"}),
		field.Float("regular_price").
			Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "numeric(12,2)"}),
		field.Float("discount_percent").
			Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "numeric(5,2)"}),
		field.String("unit").Default("ea"),
		field.String("category").Optional().Nillable(),
		field.String("source").Default("pdf"),
		field.Time("valid_from").
			Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "date"}),
		field.Time("valid_until").
			Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "date"}),
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (CircularItem) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("retailer"),
		index.Fields("item_name"),
		index.Fields("created_at"),
	}
}
