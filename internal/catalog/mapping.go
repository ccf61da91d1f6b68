package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// mappingHeader is the ledger's column layout: the raw colour name as it
// appears in product names, an optional curator note, and the category
// identifier assigned to it.
var mappingHeader = []string{"colour_name", "note", "colour_id"}

// Mapping is the colour-name ledger: spellings seen in product names mapped
// to category identifiers. Names the classifier encounters for the first
// time are appended with an empty identifier so a curator can fill them in.
type Mapping struct {
	path    string
	rows    [][]string
	index   map[string]string
	pending int
}

// OpenMapping reads the ledger at path. A missing file yields an empty
// ledger that will be created on Save.
func OpenMapping(path string) (*Mapping, error) {
	m := &Mapping{
		path:  path,
		index: make(map[string]string),
	}

	file, err := os.Open(path) // #nosec G304 - User-specified ledger path, intended to be read
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to open colour mapping: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read colour mapping: %w", err)
	}
	if len(records) > 0 {
		// Skip header.
		m.rows = records[1:]
	}

	for _, row := range m.rows {
		if len(row) < 1 {
			continue
		}
		name := normaliseName(row[0])
		if name == "" {
			continue
		}
		id := ""
		if len(row) >= 3 {
			id = strings.TrimSpace(row[2])
		}
		m.index[name] = id
	}

	return m, nil
}

// Lookup returns the identifier recorded for a colour name. The second
// return distinguishes "known with empty id" (seen before, awaiting
// curation) from "never seen".
func (m *Mapping) Lookup(name string) (string, bool) {
	id, ok := m.index[normaliseName(name)]
	return id, ok
}

// Add appends a previously unseen colour name with an empty identifier.
// Known names are left untouched.
func (m *Mapping) Add(name string) {
	trimmed := strings.TrimSpace(name)
	key := normaliseName(trimmed)
	if key == "" {
		return
	}
	if _, ok := m.index[key]; ok {
		return
	}
	m.index[key] = ""
	m.rows = append(m.rows, []string{trimmed, "", ""})
	m.pending++
}

// Pending returns the number of names added since the ledger was opened.
func (m *Mapping) Pending() int {
	return m.pending
}

// Save writes the ledger back, creating the file if necessary.
func (m *Mapping) Save() error {
	file, err := os.Create(m.path) // #nosec G304 - User-specified ledger path, intended to be written
	if err != nil {
		return fmt.Errorf("failed to create colour mapping file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(mappingHeader); err != nil {
		return fmt.Errorf("failed to write colour mapping header: %w", err)
	}
	for _, row := range m.rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write colour mapping row: %w", err)
		}
	}
	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush colour mapping: %w", err)
	}
	return nil
}

func normaliseName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
