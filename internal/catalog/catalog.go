// Package catalog reads and writes the product catalog and the
// colour-mapping ledger chromatag classifies against.
package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Columns names the catalog header columns chromatag needs.
type Columns struct {
	ProductName string
	ImageURL    string
	ColourID    string
}

// Product is one catalog row.
type Product struct {
	// Row is the data row index (0 = first row after the header).
	Row int

	Name     string
	ImageURL string
	ColourID string

	// Missing reports that the source row was too short to carry all
	// required columns. Such rows are never classified.
	Missing bool
}

// Catalog is a CSV-backed product catalog. Rows are read once and written
// back in full so untouched columns survive a run.
type Catalog struct {
	path   string
	header []string
	rows   [][]string

	nameIdx int
	urlIdx  int
	idIdx   int
}

// Open reads the catalog at path and locates the named columns in its
// header row.
func Open(path string, cols Columns) (*Catalog, error) {
	file, err := os.Open(path) // #nosec G304 - User-specified catalog path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", path)
	}

	c := &Catalog{
		path:   path,
		header: records[0],
		rows:   records[1:],
	}

	if c.nameIdx, err = columnIndex(c.header, cols.ProductName); err != nil {
		return nil, err
	}
	if c.urlIdx, err = columnIndex(c.header, cols.ImageURL); err != nil {
		return nil, err
	}
	if c.idIdx, err = columnIndex(c.header, cols.ColourID); err != nil {
		return nil, err
	}

	return c, nil
}

func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %q not found in catalog header", name)
}

// Len returns the number of data rows.
func (c *Catalog) Len() int {
	return len(c.rows)
}

// Products returns every data row as a Product.
func (c *Catalog) Products() []Product {
	maxIdx := max(c.nameIdx, c.urlIdx, c.idIdx)

	products := make([]Product, len(c.rows))
	for i, row := range c.rows {
		if len(row) <= maxIdx {
			products[i] = Product{Row: i, Missing: true}
			continue
		}
		products[i] = Product{
			Row:      i,
			Name:     strings.TrimSpace(row[c.nameIdx]),
			ImageURL: strings.TrimSpace(row[c.urlIdx]),
			ColourID: strings.TrimSpace(row[c.idIdx]),
		}
	}
	return products
}

// SetColourID records a classification result for the given data row.
func (c *Catalog) SetColourID(row int, id string) error {
	if row < 0 || row >= len(c.rows) {
		return fmt.Errorf("row %d out of range (%d rows)", row, len(c.rows))
	}
	for len(c.rows[row]) <= c.idIdx {
		c.rows[row] = append(c.rows[row], "")
	}
	c.rows[row][c.idIdx] = id
	return nil
}

// Save writes the catalog back to the path it was opened from, or to an
// alternative path when one is given.
func (c *Catalog) Save(path string) error {
	if path == "" {
		path = c.path
	}

	file, err := os.Create(path) // #nosec G304 - User-specified catalog path, intended to be written
	if err != nil {
		return fmt.Errorf("failed to create catalog file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(c.header); err != nil {
		return fmt.Errorf("failed to write catalog header: %w", err)
	}
	for _, row := range c.rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write catalog row: %w", err)
		}
	}
	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush catalog: %w", err)
	}
	return nil
}

// ColourHint extracts the colour-name suffix from a product name of the
// form "product name<ideographic space>colour name". Returns "" when the
// name carries no hint.
func ColourHint(productName string) string {
	// Product names separate the colour suffix with U+3000, the
	// full-width space.
	if _, hint, found := strings.Cut(productName, "　"); found {
		return strings.TrimSpace(hint)
	}
	return ""
}
