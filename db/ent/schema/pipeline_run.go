package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/db/ent/schema/utils"
)

// PipelineRunTable is the table run records are written to.
const PipelineRunTable = "pipeline_runs"

// PipelineRun is one write-once observability row per pipeline invocation.
type PipelineRun struct{ ent.Schema }

func (PipelineRun) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: PipelineRunTable},
	}
}

func (PipelineRun) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.Time("created_at").Default(time.Now).Immutable(),
		field.String("filename").Optional(),
		field.String("mime_type").Optional(),
		field.Int64("file_size").Default(0),
		field.String("source_format").Optional().
			Validate(utils.EnumValidator(constants.SourceFormats...)),
		field.String("sha256").Optional(),
		field.String("vendor_key").Optional(),
		field.String("stage").NotEmpty(),

		// image quality
		field.Bool("quality_measured").Default(false),
		field.Float("blur").Default(0),
		field.Float("glare").Default(0),
		field.Float("brightness").Default(0),
		field.Float("contrast").Default(0),
		field.Int("width").Default(0),
		field.Int("height").Default(0),
		field.Float("megapixels").Default(0),
		field.Float("skew_degrees").Default(0),
		field.Bool("boundary_detected").Default(false),

		// recognition
		field.Float("recognition_confidence").Default(0),
		field.Int("attempt_count").Default(0),
		field.String("best_variant").Optional(),
		field.String("best_engine").Optional(),

		// extraction
		field.String("vendor").Optional(),
		field.String("invoice_date").Optional(),
		field.Int64("total_cents").Optional().Nillable(),
		field.Int("line_item_count").Default(0),
		field.Int("arbitration_confidence").Default(0),
		field.Bool("total_overridden").Default(false),

		// confidence
		field.Float("overall_score").Default(0),
		field.Float("recognition_score").Default(0),
		field.Float("quality_score").Default(0),
		field.Float("extraction_score").Default(0),
		field.Float("validation_score").Default(0),
		field.Float("field_vendor").Default(0),
		field.Float("field_date").Default(0),
		field.Float("field_total").Default(0),
		field.Float("field_line_items").Default(0),

		field.Bool("ok").Default(false),
		field.String("status").NotEmpty(),
		field.String("failure_reasons").Default(""),
		field.String("error_message").Optional().Nillable(),
		field.Int64("processing_ms").Default(0),
	}
}

func (PipelineRun) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("created_at"),
		index.Fields("ok", "created_at"),
		index.Fields("sha256"),
	}
}
