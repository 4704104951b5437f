package output

import "encoding/json"

// JSONFormatter outputs RunResults as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format marshals a single result as an indented object and several as an
// array.
func (f *JSONFormatter) Format(results ...*RunResult) ([]byte, error) {
	if len(results) == 1 {
		return json.MarshalIndent(results[0], "", "  ")
	}
	if results == nil {
		results = []*RunResult{}
	}
	return json.MarshalIndent(results, "", "  ")
}
