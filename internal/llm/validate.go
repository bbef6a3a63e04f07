package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var recordsSchema = jsonschema.MustCompileString("records.json", RecordsSchema)

// ValidateRecords checks that data is an array of objects with scalar values.
func ValidateRecords(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return ValidateValue(v)
}

// ValidateValue is ValidateRecords for a value already produced by json.Unmarshal.
func ValidateValue(v any) error {
	if err := recordsSchema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
