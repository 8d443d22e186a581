package openai

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// researchSchema is the explicit boundary contract for research output.
// Anything the model returns is validated against it before being decoded
// into the domain record; mismatches are rejected, never coerced.
var researchSchema = buildResearchSchema()

func buildResearchSchema() *openapi3.Schema {
	summary := openapi3.NewObjectSchema().
		WithProperty("question", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("answer", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("evidence", openapi3.NewStringSchema())
	summary.Required = []string{"question", "answer"}

	concept := openapi3.NewObjectSchema().
		WithProperty("name", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("definition", openapi3.NewStringSchema())
	concept.Required = []string{"name"}

	related := openapi3.NewObjectSchema().
		WithProperty("title", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("author", openapi3.NewStringSchema()).
		WithProperty("relevance", openapi3.NewStringSchema())
	related.Required = []string{"title"}

	concepts := openapi3.NewArraySchema().WithMinItems(1)
	concepts.Items = openapi3.NewSchemaRef("", concept)

	relatedBooks := openapi3.NewArraySchema()
	relatedBooks.Items = openapi3.NewSchemaRef("", related)

	actions := openapi3.NewArraySchema().WithMinItems(1)
	actions.Items = openapi3.NewSchemaRef("", openapi3.NewStringSchema().WithMinLength(1))

	root := openapi3.NewObjectSchema().
		WithProperty("core_message", openapi3.NewStringSchema().WithMinLength(1))
	root.Properties["executive_summary"] = openapi3.NewSchemaRef("", summary)
	root.Properties["key_concepts"] = openapi3.NewSchemaRef("", concepts)
	root.Properties["related_books"] = openapi3.NewSchemaRef("", relatedBooks)
	root.Properties["today_actions"] = openapi3.NewSchemaRef("", actions)
	root.Required = []string{"core_message", "executive_summary", "key_concepts", "related_books", "today_actions"}
	return root
}

func validateResearchJSON(raw []byte) error {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("decode research json: %w", err)
	}
	if err := researchSchema.VisitJSON(value); err != nil {
		return fmt.Errorf("research schema: %w", err)
	}
	return nil
}
