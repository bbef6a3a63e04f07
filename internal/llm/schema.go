package llm

// RecordsSchema is the reply shape every extraction expects: a JSON array of flat objects.
// Heterogeneous key sets across rows are allowed.
const RecordsSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "array",
	"items": {
		"type": "object",
		"additionalProperties": {
			"type": ["string", "number", "boolean", "null"]
		}
	}
}`
