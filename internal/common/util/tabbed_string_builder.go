package util

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// TabbedStringBuilder builds tab aligned text in memory.
// Writes go to a strings.Builder, which never fails, so none of the methods return errors.
type TabbedStringBuilder struct {
	sb     *strings.Builder
	writer *tabwriter.Writer
}

// NewTabbedStringBuilder takes the same parameters as tabwriter.NewWriter.
func NewTabbedStringBuilder(minwidth, tabwidth, padding int, padchar byte, flags uint) *TabbedStringBuilder {
	sb := &strings.Builder{}
	return &TabbedStringBuilder{
		sb:     sb,
		writer: tabwriter.NewWriter(sb, minwidth, tabwidth, padding, padchar, flags),
	}
}

func (t *TabbedStringBuilder) Writef(format string, a ...any) {
	_, _ = fmt.Fprintf(t.writer, format, a...)
}

// Row writes the cells as one tab separated line.
// Tabs and newlines inside a cell are replaced by spaces so they cannot break the alignment.
func (t *TabbedStringBuilder) Row(cells ...string) {
	for i, cell := range cells {
		if i > 0 {
			_, _ = t.writer.Write([]byte{'\t'})
		}
		_, _ = t.writer.Write([]byte(cellReplacer.Replace(cell)))
	}
	_, _ = t.writer.Write([]byte{'\n'})
}

var cellReplacer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// String flushes pending output and returns everything written so far.
func (t *TabbedStringBuilder) String() string {
	_ = t.writer.Flush()
	return t.sb.String()
}
