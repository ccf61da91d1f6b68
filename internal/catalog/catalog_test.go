package catalog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

var testColumns = Columns{
	ProductName: "Product Name",
	ImageURL:    "Image URL",
	ColourID:    "Colour ID",
}

func writeCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.csv")

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test csv: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		t.Fatalf("failed to write test csv: %v", err)
	}
	return path
}

func TestOpen(t *testing.T) {
	path := writeCSV(t, [][]string{
		{"SKU", "Product Name", "Image URL", "Colour ID"},
		{"A1", "Shirt　red", "http://example.com/a1.jpg", ""},
		{"A2", "Hat", "http://example.com/a2.jpg", "4"},
	})

	cat, err := Open(path, testColumns)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cat.Len())
	}

	products := cat.Products()
	if products[0].Name != "Shirt　red" || products[0].ColourID != "" {
		t.Errorf("products[0] = %+v, want shirt row with empty colour id", products[0])
	}
	if products[1].ColourID != "4" {
		t.Errorf("products[1].ColourID = %q, want 4", products[1].ColourID)
	}
}

func TestOpenMissingColumn(t *testing.T) {
	path := writeCSV(t, [][]string{
		{"Product Name", "Image URL"},
		{"Shirt", "http://example.com/a.jpg"},
	})

	if _, err := Open(path, testColumns); err == nil {
		t.Error("Open() should fail when a required column is missing")
	}
}

func TestProductsShortRow(t *testing.T) {
	path := writeCSV(t, [][]string{
		{"Product Name", "Image URL", "Colour ID"},
		{"Shirt"},
	})

	cat, err := Open(path, testColumns)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}

	products := cat.Products()
	if !products[0].Missing {
		t.Error("short row should be reported as Missing")
	}
}

func TestSetColourIDAndSave(t *testing.T) {
	path := writeCSV(t, [][]string{
		{"Product Name", "Image URL", "Colour ID"},
		{"Shirt", "http://example.com/a.jpg", ""},
		{"Hat", "http://example.com/b.jpg", ""},
	})

	cat, err := Open(path, testColumns)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	if err := cat.SetColourID(0, "4"); err != nil {
		t.Fatalf("SetColourID() unexpected error: %v", err)
	}
	if err := cat.SetColourID(5, "4"); err == nil {
		t.Error("SetColourID() with out-of-range row should fail")
	}
	if err := cat.Save(""); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	reopened, err := Open(path, testColumns)
	if err != nil {
		t.Fatalf("reopen unexpected error: %v", err)
	}
	products := reopened.Products()
	if products[0].ColourID != "4" {
		t.Errorf("saved ColourID = %q, want 4", products[0].ColourID)
	}
	if products[1].ColourID != "" {
		t.Errorf("untouched row ColourID = %q, want empty", products[1].ColourID)
	}
}

func TestColourHint(t *testing.T) {
	tests := []struct {
		name    string
		product string
		want    string
	}{
		{
			name:    "hint after ideographic space",
			product: "Wool Jumper　burgundy",
			want:    "burgundy",
		},
		{
			name:    "no separator",
			product: "Wool Jumper",
			want:    "",
		},
		{
			name:    "trailing whitespace trimmed",
			product: "Scarf　navy ",
			want:    "navy",
		},
		{
			name:    "only first separator splits",
			product: "Coat　light　grey",
			want:    "light　grey",
		},
		{
			name:    "empty name",
			product: "",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColourHint(tt.product); got != tt.want {
				t.Errorf("ColourHint(%q) = %q, want %q", tt.product, got, tt.want)
			}
		})
	}
}

func TestMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colour_mapping.csv")

	// Missing file yields an empty ledger.
	m, err := OpenMapping(path)
	if err != nil {
		t.Fatalf("OpenMapping() unexpected error: %v", err)
	}
	if _, ok := m.Lookup("navy"); ok {
		t.Error("empty ledger should not resolve any name")
	}

	m.Add("Navy")
	m.Add("navy") // duplicate, case-insensitive
	m.Add("wine red")
	if m.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", m.Pending())
	}
	if err := m.Save(); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	// Curate one entry by hand and reopen.
	reopened, err := OpenMapping(path)
	if err != nil {
		t.Fatalf("OpenMapping() after save unexpected error: %v", err)
	}
	id, ok := reopened.Lookup("NAVY")
	if !ok {
		t.Fatal("saved name should be known after reopen")
	}
	if id != "" {
		t.Errorf("uncurated id = %q, want empty", id)
	}
}

func TestMappingCuratedLookup(t *testing.T) {
	path := writeCSV(t, [][]string{
		{"colour_name", "note", "colour_id"},
		{"burgundy", "dark red family", "4"},
		{"pending colour", "", ""},
	})

	m, err := OpenMapping(path)
	if err != nil {
		t.Fatalf("OpenMapping() unexpected error: %v", err)
	}

	id, ok := m.Lookup("Burgundy")
	if !ok || id != "4" {
		t.Errorf("Lookup(Burgundy) = %q, %v, want 4, true", id, ok)
	}

	id, ok = m.Lookup("pending colour")
	if !ok || id != "" {
		t.Errorf("Lookup(pending colour) = %q, %v, want empty id, true", id, ok)
	}

	if _, ok := m.Lookup("never seen"); ok {
		t.Error("unknown name should not resolve")
	}
}
