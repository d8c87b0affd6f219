package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type testRecord struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

type stringer struct{ s string }

func (s stringer) String() string { return s.s }

func writeAll(t *testing.T, w Writer, records ...any) {
	t.Helper()
	for _, r := range records {
		if err := w.Write(r); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func mustWriter(t *testing.T, buf *bytes.Buffer, f Format, opts ...Option) Writer {
	t.Helper()
	w, err := NewWriter(buf, f, opts...)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	return w
}

// --- Format Tests ---

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{" JSON ", FormatJSON, false},
		{"jsonl", FormatJSONL, false},
		{"ndjson", FormatJSONL, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"text", FormatText, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"out.yaml", FormatYAML},
		{"dir/out.jsonl", FormatJSONL},
		{"out.txt", FormatText},
		{"out", FormatJSON},
		{"out.csv", FormatJSON},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path, FormatJSON); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNewWriter_UnsupportedFormat(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, Format("csv"))
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

// --- JSON Tests ---

func TestJSONWriter_SingleRecord(t *testing.T) {
	buf := &bytes.Buffer{}
	writeAll(t, mustWriter(t, buf, FormatJSON), testRecord{Name: "a", Value: 1})

	var got testRecord
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON object: %v\n%s", err, buf)
	}
	if got.Name != "a" || got.Value != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestJSONWriter_MultipleRecords(t *testing.T) {
	buf := &bytes.Buffer{}
	writeAll(t, mustWriter(t, buf, FormatJSON),
		testRecord{Name: "a", Value: 1}, testRecord{Name: "b", Value: 2})

	var got []testRecord
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d records, want 2", len(got))
	}
}

func TestJSONWriter_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	writeAll(t, mustWriter(t, buf, FormatJSON))

	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty output = %q, want []", buf.String())
	}
}

func TestJSONWriter_Compact(t *testing.T) {
	buf := &bytes.Buffer{}
	writeAll(t, mustWriter(t, buf, FormatJSON, WithPretty(false)), testRecord{Name: "a"})

	if got := buf.String(); got != `{"name":"a","value":0}`+"\n" {
		t.Errorf("compact output = %q", got)
	}
}

func TestJSONWriter_CustomIndent(t *testing.T) {
	buf := &bytes.Buffer{}
	writeAll(t, mustWriter(t, buf, FormatJSON, WithIndent("\t")), testRecord{Name: "a"})

	if !strings.Contains(buf.String(), "\t\"name\"") {
		t.Errorf("expected tab indentation, got %q", buf.String())
	}
}

func TestJSONWriter_NoHTMLEscape(t *testing.T) {
	buf := &bytes.Buffer{}
	writeAll(t, mustWriter(t, buf, FormatJSON), testRecord{Name: "a<b>&c"})

	if !strings.Contains(buf.String(), "a<b>&c") {
		t.Errorf("text should not be HTML escaped: %q", buf.String())
	}
}

// --- JSONL Tests ---

func TestJSONLWriter_StreamsLines(t *testing.T) {
	buf := &bytes.Buffer{}
	w := mustWriter(t, buf, FormatJSONL)

	if err := w.Write(testRecord{Name: "a"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("JSONL should write before Close")
	}
	writeAll(t, w, testRecord{Name: "b"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for i, line := range lines {
		var r testRecord
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Errorf("line %d invalid: %v", i, err)
		}
	}
}

func TestJSONLWriter_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	writeAll(t, mustWriter(t, buf, FormatJSONL))
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

// --- YAML Tests ---

func TestYAMLWriter_SingleRecord(t *testing.T) {
	buf := &bytes.Buffer{}
	writeAll(t, mustWriter(t, buf, FormatYAML), testRecord{Name: "a", Value: 1})

	var got testRecord
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if got.Name != "a" || got.Value != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestYAMLWriter_MultipleRecords(t *testing.T) {
	buf := &bytes.Buffer{}
	writeAll(t, mustWriter(t, buf, FormatYAML),
		testRecord{Name: "a"}, testRecord{Name: "b"})

	if !strings.HasPrefix(buf.String(), "- ") {
		t.Errorf("expected a YAML sequence, got %q", buf.String())
	}
}

// --- Text Tests ---

func TestTextWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	writeAll(t, mustWriter(t, buf, FormatText), stringer{"first"}, testRecord{Name: "x", Value: 2})

	want := "first\n\n" + fmt.Sprintf("%+v", testRecord{Name: "x", Value: 2}) + "\n"
	if buf.String() != want {
		t.Errorf("text output = %q, want %q", buf.String(), want)
	}
}

// --- Create Tests ---

func TestCreate(t *testing.T) {
	fs := afero.NewMemMapFs()
	w, err := Create(fs, "out/posts.jsonl", FormatJSONL)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	writeAll(t, w, testRecord{Name: "a"})

	data, err := afero.ReadFile(fs, "out/posts.jsonl")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"name":"a"`) {
		t.Errorf("file content = %q", data)
	}
}

func TestCreate_BadFormat(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := Create(fs, "x.out", Format("csv")); err == nil {
		t.Error("expected error")
	}
}
