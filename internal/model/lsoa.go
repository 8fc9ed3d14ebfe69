package model

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
)

// LSOATable holds numeric columns keyed by LSOA code. Unlike FeatureTable it
// carries a single code key and tolerates whatever row order the source file
// had; aggregation imposes order later.
type LSOATable struct {
	codes   []string
	order   []string
	columns map[string][]float64
}

// NewLSOATable builds an empty table over the given LSOA codes.
func NewLSOATable(codes []string) *LSOATable {
	return &LSOATable{
		codes:   append([]string(nil), codes...),
		columns: make(map[string][]float64),
	}
}

// Len reports the number of LSOA rows.
func (t *LSOATable) Len() int { return len(t.codes) }

// Codes returns a copy of the LSOA codes in row order.
func (t *LSOATable) Codes() []string {
	return append([]string(nil), t.codes...)
}

// ColumnNames returns the column names in insertion order.
func (t *LSOATable) ColumnNames() []string {
	return append([]string(nil), t.order...)
}

// AddColumn appends a named column. The length must match the row count and
// the name must be new.
func (t *LSOATable) AddColumn(name string, values []float64) error {
	if len(values) != len(t.codes) {
		return eris.Wrapf(ErrSchema, "model: column %s has %d values for %d rows", name, len(values), len(t.codes))
	}
	if _, ok := t.columns[name]; ok {
		return eris.Wrapf(ErrSchema, "model: duplicate column %s", name)
	}
	t.columns[name] = append([]float64(nil), values...)
	t.order = append(t.order, name)
	return nil
}

// Column returns a copy of the named column.
func (t *LSOATable) Column(name string) ([]float64, error) {
	values, ok := t.columns[name]
	if !ok {
		return nil, eris.Wrapf(ErrSchema, "model: unknown column %s", name)
	}
	return append([]float64(nil), values...), nil
}

// WriteCSV writes the table with the LSOA code as the leading column.
func (t *LSOATable) WriteCSV(path, codeColumn string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "model: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{codeColumn}, t.order...)
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "model: write header to %s", path)
	}
	for i, code := range t.codes {
		record := make([]string, 0, len(header))
		record = append(record, code)
		for _, name := range t.order {
			record = append(record, strconv.FormatFloat(t.columns[name][i], 'f', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "model: write row to %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "model: flush %s", path)
	}
	return nil
}

// ReadLSOACSV loads a CSV whose codeColumn holds LSOA codes; every other
// column must be numeric.
func ReadLSOACSV(path, codeColumn string) (*LSOATable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: open %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "model: parse %s", path)
	}
	if len(records) < 1 {
		return nil, eris.Wrapf(ErrSchema, "model: %s is empty", path)
	}

	header := records[0]
	codeIdx := -1
	for i, name := range header {
		if name == codeColumn {
			codeIdx = i
		}
	}
	if codeIdx < 0 {
		return nil, eris.Wrapf(ErrSchema, "model: %s missing column %s", path, codeColumn)
	}

	rows := records[1:]
	codes := make([]string, len(rows))
	for i, row := range rows {
		codes[i] = row[codeIdx]
	}
	table := NewLSOATable(codes)

	for j, name := range header {
		if j == codeIdx {
			continue
		}
		values := make([]float64, len(rows))
		for i, row := range rows {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, eris.Wrapf(ErrSchema, "model: %s row %d column %s is not numeric: %s", path, i+2, name, row[j])
			}
			values[i] = v
		}
		if err := table.AddColumn(name, values); err != nil {
			return nil, err
		}
	}
	return table, nil
}
