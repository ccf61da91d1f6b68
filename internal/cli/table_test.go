package cli

import (
	"strings"
	"testing"
)

func TestTableRender(t *testing.T) {
	table := NewTable([]string{"Image", "Category", "ID"})
	table.AddRow([]string{"shirt.jpg", "Red", "4"})
	table.AddRow([]string{"very-long-image-name.png", "Blue", "5"})

	output := table.Render()
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	if len(lines) != 4 {
		t.Fatalf("Render() produced %d lines, want 4 (header, separator, 2 rows)", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Image") {
		t.Errorf("header line = %q, want Image first", lines[0])
	}
	if !strings.Contains(lines[1], "-") || strings.ContainsAny(lines[1], "abcdefghijklmnopqrstuvwxyz") {
		t.Errorf("separator line = %q, want dashes only", lines[1])
	}

	// All lines should align to the widest cell in each column.
	width := len(lines[3])
	for i, line := range lines {
		if len(strings.TrimRight(line, " ")) > width {
			t.Errorf("line %d exceeds column width: %q", i, line)
		}
	}
}

func TestTableShortRow(t *testing.T) {
	table := NewTable([]string{"A", "B", "C"})
	table.AddRow([]string{"only"})

	output := table.Render()
	if !strings.Contains(output, "only") {
		t.Errorf("Render() = %q, want the short row padded into place", output)
	}
}

func TestTableEmptyHeaders(t *testing.T) {
	table := NewTable(nil)
	if got := table.Render(); got != "" {
		t.Errorf("Render() = %q, want empty string", got)
	}
}
