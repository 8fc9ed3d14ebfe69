package model

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
)

// ReadCSV loads a feature table from a CSV file. The header must contain both
// key columns; every other column is parsed as a float64 feature. Blank cells
// and non-numeric values are schema violations, as are duplicate identities.
func ReadCSV(path string, keys KeyColumns) (*FeatureTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "model: read %s", path)
	}
	if len(records) == 0 {
		return nil, eris.Wrapf(ErrSchema, "%s: empty file", path)
	}

	header := records[0]
	codeIdx, nameIdx := -1, -1
	for i, col := range header {
		switch col {
		case keys.Code:
			codeIdx = i
		case keys.Name:
			nameIdx = i
		}
	}
	if codeIdx < 0 {
		return nil, eris.Wrapf(ErrSchema, "%s: missing key column %q", path, keys.Code)
	}
	if nameIdx < 0 {
		return nil, eris.Wrapf(ErrSchema, "%s: missing key column %q", path, keys.Name)
	}

	ids := make([]Identity, 0, len(records)-1)
	for _, rec := range records[1:] {
		ids = append(ids, Identity{Code: rec[codeIdx], Name: rec[nameIdx]})
	}

	table, err := NewFeatureTable(keys, ids)
	if err != nil {
		return nil, eris.Wrapf(err, "model: %s", path)
	}

	for i, col := range header {
		if i == codeIdx || i == nameIdx {
			continue
		}
		vals := make([]float64, 0, len(ids))
		for r, rec := range records[1:] {
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return nil, eris.Wrapf(ErrSchema, "%s: column %q row %d: non-numeric value %q", path, col, r+1, rec[i])
			}
			vals = append(vals, v)
		}
		if err := table.AddColumn(col, vals); err != nil {
			return nil, eris.Wrapf(err, "model: %s", path)
		}
	}

	return table, nil
}

// WriteCSV saves the table with the key columns first, then the feature
// columns in table order.
func (t *FeatureTable) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "model: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append([]string{t.keys.Code, t.keys.Name}, t.order...)
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "model: write header %s", path)
	}

	for i, id := range t.ids {
		row := make([]string, 0, len(header))
		row = append(row, id.Code, id.Name)
		for _, name := range t.order {
			row = append(row, strconv.FormatFloat(t.columns[name][i], 'f', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "model: write row %s", path)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "model: flush %s", path)
	}
	return nil
}
