package analyzer

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed result.schema.json
var resultSchema string

var resultSchemaLoader = gojsonschema.NewStringLoader(resultSchema)

// CheckResult compares a raw analysis payload with the expected shape and
// returns one warning per mismatch. Payloads are rendered optimistically, so
// warnings are informational only.
func CheckResult(raw []byte) []string {
	result, err := gojsonschema.Validate(resultSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return []string{fmt.Sprintf("schema check skipped: %v", err)}
	}
	if result.Valid() {
		return nil
	}
	warnings := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		warnings = append(warnings, field+": "+desc.Description())
	}
	return warnings
}
