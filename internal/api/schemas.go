package api

import "github.com/xeipuuv/gojsonschema"

// Request schemas, compiled once at package load. Unknown fields are
// rejected so undefined payload keys never propagate into storage or layout.

var contactSchema = mustCompile(`{
	"type": "object",
	"additionalProperties": false,
	"required": ["name", "email"],
	"properties": {
		"name":    {"type": "string", "minLength": 1},
		"email":   {"type": "string", "pattern": "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$"},
		"phone":   {"type": "string"},
		"service": {"type": "string"},
		"message": {"type": "string"}
	}
}`)

var assessmentSchema = mustCompile(`{
	"type": "object",
	"additionalProperties": false,
	"required": ["name", "email", "answers"],
	"properties": {
		"name":    {"type": "string", "minLength": 1},
		"email":   {"type": "string", "pattern": "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$"},
		"service": {"type": "string"},
		"answers": {"type": "object"}
	}
}`)

var documentSchema = mustCompile(`{
	"type": "object",
	"additionalProperties": false,
	"required": ["customerName", "items", "total"],
	"properties": {
		"customerName": {"type": "string", "minLength": 1},
		"total":        {"type": "number"},
		"items": {
			"type": "array",
			"items": {
				"type": "object",
				"additionalProperties": false,
				"required": ["description", "price"],
				"properties": {
					"description": {"type": "string", "minLength": 1},
					"price":       {"type": "number"}
				}
			}
		}
	}
}`)

var emailDocumentSchema = mustCompile(`{
	"type": "object",
	"additionalProperties": false,
	"required": ["recipientEmail", "subject", "filename"],
	"properties": {
		"recipientEmail": {"type": "string", "pattern": "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$"},
		"subject":        {"type": "string", "minLength": 1},
		"filename":       {"type": "string", "minLength": 1}
	}
}`)

func mustCompile(schemaJSON string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(err)
	}
	return schema
}
