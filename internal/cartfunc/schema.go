package cartfunc

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"cartpromo/internal/model"
)

// inputSchemaJSON describes the fields of the host invocation document the
// engine relies on. Anything else the host sends is ignored.
const inputSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["cart"],
  "properties": {
    "cart": {
      "type": "object",
      "required": ["lines"],
      "properties": {
        "lines": {"type": "array", "items": {"$ref": "#/definitions/line"}}
      }
    }
  },
  "definitions": {
    "line": {
      "type": "object",
      "required": ["id", "quantity", "cost"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "quantity": {"type": "integer", "minimum": 1},
        "attribute": {
          "type": ["object", "null"],
          "properties": {
            "key": {"type": "string"},
            "value": {"type": ["string", "null"]}
          }
        },
        "cost": {
          "type": "object",
          "required": ["amountPerQuantity"],
          "properties": {
            "amountPerQuantity": {
              "type": "object",
              "required": ["amount"],
              "properties": {
                "amount": {"type": "string", "pattern": "^-?[0-9]+(\\.[0-9]+)?$"},
                "currencyCode": {"type": "string"}
              }
            }
          }
        },
        "merchandise": {
          "type": ["object", "null"],
          "properties": {
            "__typename": {"type": "string"},
            "id": {"type": "string"}
          }
        }
      }
    }
  }
}`

var inputSchema = mustCompile(inputSchemaJSON)

func mustCompile(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("cartfunc: compile input schema: %v", err))
	}
	return schema
}

// Validate checks raw against the input schema.
// Returns a validation APIError listing every violation.
func Validate(raw []byte) error {
	result, err := inputSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return model.NewValidationError("cart", "malformed JSON")
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return model.NewValidationError("cart", strings.Join(msgs, "; "))
}
