package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter writes the result as a single JSON document
type JSONFormatter struct {
	Indent string
}

// Format returns FormatJSON
func (f *JSONFormatter) Format() Format { return FormatJSON }

// Render encodes result. Decimals are encoded as strings.
func (f *JSONFormatter) Render(w io.Writer, result *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.Indent)
	return enc.Encode(result)
}
