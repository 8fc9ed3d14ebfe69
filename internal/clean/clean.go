// Package clean turns raw census extracts into interim files with canonical
// column names, England-only rows, and only the columns aggregation needs.
// Each dataset is described declaratively by a Spec.
package clean

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/localgov-analytics/peers-cli/internal/model"
)

// Derived is a new column formed by summing raw columns.
type Derived struct {
	Name    string
	Sources []string
}

// PrefixSum sums every raw column of the form "<Prefix><n> ..." whose leading
// number is below the threshold. Used for banded counts like rooms.
type PrefixSum struct {
	Name   string
	Prefix string
	Below  int
}

// Ratio is a new column formed by dividing two cleaned columns.
type Ratio struct {
	Name        string
	Numerator   string
	Denominator string
}

// Merge joins columns from a second raw file on the LSOA code.
type Merge struct {
	File       string
	CodeColumn string
	Keep       map[string]string
}

// Spec describes how one raw file becomes its interim counterpart.
type Spec struct {
	// File is the raw file name; the interim file keeps the same name.
	File string
	// CodeColumn is the raw column holding the LSOA code.
	CodeColumn string
	// Keep maps raw column names to their cleaned names.
	Keep map[string]string
	// Derived, PrefixSums and Ratios add computed columns.
	Derived    []Derived
	PrefixSums []PrefixSum
	Ratios     []Ratio
	// Merge optionally joins a second raw file before deriving columns.
	Merge *Merge
}

// rawFrame is a raw CSV held as strings with column index.
type rawFrame struct {
	path string
	idx  map[string]int
	rows [][]string
}

func readRaw(path string) (*rawFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "clean: open %s", path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "clean: parse %s", path)
	}
	if len(records) < 1 {
		return nil, eris.Wrapf(model.ErrSchema, "clean: %s is empty", path)
	}

	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[name] = i
	}
	return &rawFrame{path: path, idx: idx, rows: records[1:]}, nil
}

func (r *rawFrame) column(name string) (int, error) {
	i, ok := r.idx[name]
	if !ok {
		return 0, eris.Wrapf(model.ErrSchema, "clean: %s missing column %s", r.path, name)
	}
	return i, nil
}

func (r *rawFrame) value(row []string, col int) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(row[col], ",", ""), 64)
	if err != nil {
		return 0, eris.Wrapf(model.ErrSchema, "clean: %s has non-numeric value %q", r.path, row[col])
	}
	return v, nil
}

// Dataset cleans one raw file according to its spec, writes the interim copy
// and returns the cleaned table.
func Dataset(rawDir, interimDir, lsoaColumn string, spec Spec) (*model.LSOATable, error) {
	raw, err := readRaw(filepath.Join(rawDir, spec.File))
	if err != nil {
		return nil, err
	}
	codeIdx, err := raw.column(spec.CodeColumn)
	if err != nil {
		return nil, err
	}

	// England-only rows, in source order.
	var rows [][]string
	var codes []string
	for _, row := range raw.rows {
		code := row[codeIdx]
		if !strings.HasPrefix(code, "E") {
			continue
		}
		rows = append(rows, row)
		codes = append(codes, code)
	}
	zap.L().Info("clean: filtered to England",
		zap.String("file", spec.File),
		zap.Int("kept", len(rows)),
		zap.Int("dropped", len(raw.rows)-len(rows)))

	table := model.NewLSOATable(codes)
	addColumn := func(name string, rawCols []int, frame *rawFrame, frameRows [][]string) error {
		values := make([]float64, len(frameRows))
		for i, row := range frameRows {
			for _, c := range rawCols {
				v, err := frame.value(row, c)
				if err != nil {
					return err
				}
				values[i] += v
			}
		}
		return table.AddColumn(name, values)
	}

	// Kept columns in deterministic name order.
	for _, cleaned := range sortedValues(spec.Keep) {
		rawName := keyFor(spec.Keep, cleaned)
		col, err := raw.column(rawName)
		if err != nil {
			return nil, err
		}
		if err := addColumn(cleaned, []int{col}, raw, rows); err != nil {
			return nil, err
		}
	}

	for _, d := range spec.Derived {
		cols := make([]int, 0, len(d.Sources))
		for _, src := range d.Sources {
			c, err := raw.column(src)
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
		}
		if err := addColumn(d.Name, cols, raw, rows); err != nil {
			return nil, err
		}
	}

	for _, p := range spec.PrefixSums {
		var cols []int
		for name, c := range raw.idx {
			n, ok := bandNumber(name, p.Prefix)
			if ok && n < p.Below {
				cols = append(cols, c)
			}
		}
		if len(cols) == 0 {
			return nil, eris.Wrapf(model.ErrSchema, "clean: %s has no columns with prefix %q", spec.File, p.Prefix)
		}
		if err := addColumn(p.Name, cols, raw, rows); err != nil {
			return nil, err
		}
	}

	if spec.Merge != nil {
		if err := applyMerge(table, rawDir, codes, spec.Merge); err != nil {
			return nil, err
		}
	}

	for _, ratio := range spec.Ratios {
		num, err := table.Column(ratio.Numerator)
		if err != nil {
			return nil, err
		}
		den, err := table.Column(ratio.Denominator)
		if err != nil {
			return nil, err
		}
		values := make([]float64, len(num))
		for i := range num {
			values[i] = num[i] / den[i]
		}
		if err := table.AddColumn(ratio.Name, values); err != nil {
			return nil, err
		}
	}

	out := filepath.Join(interimDir, spec.File)
	if err := table.WriteCSV(out, lsoaColumn); err != nil {
		return nil, err
	}
	zap.L().Info("clean: dataset cleaned", zap.String("file", spec.File), zap.Int("rows", table.Len()))
	return table, nil
}

func applyMerge(table *model.LSOATable, rawDir string, codes []string, m *Merge) error {
	side, err := readRaw(filepath.Join(rawDir, m.File))
	if err != nil {
		return err
	}
	codeIdx, err := side.column(m.CodeColumn)
	if err != nil {
		return err
	}
	byCode := make(map[string][]string, len(side.rows))
	for _, row := range side.rows {
		byCode[row[codeIdx]] = row
	}

	for _, cleaned := range sortedValues(m.Keep) {
		rawName := keyFor(m.Keep, cleaned)
		col, err := side.column(rawName)
		if err != nil {
			return err
		}
		values := make([]float64, len(codes))
		for i, code := range codes {
			row, ok := byCode[code]
			if !ok {
				return eris.Wrapf(model.ErrSchema, "clean: %s has no row for LSOA %s", m.File, code)
			}
			v, err := side.value(row, col)
			if err != nil {
				return err
			}
			values[i] = v
		}
		if err := table.AddColumn(cleaned, values); err != nil {
			return err
		}
	}
	return nil
}

// Lookups cleans the LSOA-to-LA lookup: validates its mappings, removes the
// configured local authorities and writes the interim copy.
func Lookups(rawDir, interimDir, file, lsoaColumn string, keys model.KeyColumns, lasToRemove []string) (*model.Lookup, error) {
	lookup, err := model.ReadLookupCSV(filepath.Join(rawDir, file), lsoaColumn, keys)
	if err != nil {
		return nil, err
	}
	for _, la := range lasToRemove {
		if lookup.RemoveLA(la) {
			zap.L().Info("clean: removed local authority from lookup", zap.String("la", la))
		} else {
			zap.L().Warn("clean: local authority to remove not in lookup, check config", zap.String("la", la))
		}
	}
	if err := lookup.WriteCSV(filepath.Join(interimDir, file), lsoaColumn, keys); err != nil {
		return nil, err
	}
	zap.L().Info("clean: lookup cleaned", zap.String("file", file), zap.Int("lsoas", lookup.Len()))
	return lookup, nil
}

// All cleans the lookup and every standard dataset.
func All(rawDir, interimDir, lsoaColumn string, keys model.KeyColumns, lasToRemove []string) error {
	if _, err := Lookups(rawDir, interimDir, LookupFile, lsoaColumn, keys, lasToRemove); err != nil {
		return err
	}
	for _, spec := range Specs() {
		if _, err := Dataset(rawDir, interimDir, lsoaColumn, spec); err != nil {
			return err
		}
	}
	return nil
}

// bandNumber extracts the leading integer of a banded column name such as
// "Number of rooms (VOA): 3 rooms". Total columns have no number.
func bandNumber(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	rest := strings.TrimPrefix(name, prefix)
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func keyFor(m map[string]string, value string) string {
	for k, v := range m {
		if v == value {
			return k
		}
	}
	return ""
}
