package output

import (
	"bufio"
	"encoding/json"
	"io"
)

type jsonWriter struct {
	w       *bufio.Writer
	cfg     *config
	records []any
}

func newJSONWriter(w io.Writer, cfg *config) *jsonWriter {
	return &jsonWriter{w: bufio.NewWriter(w), cfg: cfg}
}

// Write buffers record. Output happens on Close.
func (w *jsonWriter) Write(record any) error {
	w.records = append(w.records, record)
	return nil
}

// Close writes a single record as an object and anything else as an array.
func (w *jsonWriter) Close() error {
	var v any = w.records
	switch len(w.records) {
	case 0:
		v = []any{}
	case 1:
		v = w.records[0]
	}

	enc := json.NewEncoder(w.w)
	enc.SetEscapeHTML(false)
	if w.cfg.pretty {
		enc.SetIndent("", w.cfg.indent)
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	return w.w.Flush()
}

type jsonlWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

func newJSONLWriter(w io.Writer) *jsonlWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &jsonlWriter{w: bw, enc: enc}
}

// Write emits record as one line and flushes so that long scrapes stream.
func (w *jsonlWriter) Write(record any) error {
	if err := w.enc.Encode(record); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *jsonlWriter) Close() error {
	return w.w.Flush()
}
