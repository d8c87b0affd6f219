package output

import (
	"bufio"
	"fmt"
	"io"
)

// textWriter prints records for a terminal, one block per record separated
// by a blank line. Records implementing fmt.Stringer control their layout.
type textWriter struct {
	w *bufio.Writer
	n int
}

func newTextWriter(w io.Writer) *textWriter {
	return &textWriter{w: bufio.NewWriter(w)}
}

func (w *textWriter) Write(record any) error {
	if w.n > 0 {
		if _, err := w.w.WriteString("\n"); err != nil {
			return err
		}
	}
	w.n++

	var s string
	if st, ok := record.(fmt.Stringer); ok {
		s = st.String()
	} else {
		s = fmt.Sprintf("%+v", record)
	}
	if _, err := fmt.Fprintln(w.w, s); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *textWriter) Close() error {
	return w.w.Flush()
}
