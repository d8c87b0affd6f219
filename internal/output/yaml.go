package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlWriter struct {
	w       *bufio.Writer
	records []any
}

func newYAMLWriter(w io.Writer) *yamlWriter {
	return &yamlWriter{w: bufio.NewWriter(w)}
}

func (w *yamlWriter) Write(record any) error {
	w.records = append(w.records, record)
	return nil
}

// Close writes a single record as a mapping and anything else as a sequence.
func (w *yamlWriter) Close() error {
	var v any = w.records
	switch len(w.records) {
	case 0:
		v = []any{}
	case 1:
		v = w.records[0]
	}

	enc := yaml.NewEncoder(w.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}
