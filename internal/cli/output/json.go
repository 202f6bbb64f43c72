package output

import (
	"encoding/json"
	"io"
	"reflect"
)

// JSONFormatter writes data as JSON. HTML characters are never escaped.
type JSONFormatter struct {
	// Lines writes one compact value per line, one line per element when
	// data is a slice. Otherwise output is indented.
	Lines bool
}

// Format implements Formatter.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !f.Lines {
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return enc.Encode(data)
	}
	for i := 0; i < v.Len(); i++ {
		if err := enc.Encode(v.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}
