// Package aggregate rolls interim LSOA-level data up to local authority
// level: each LSOA is joined to its LA through the lookup, columns are summed
// or averaged per LA, and counts become percentages through ratio maps.
package aggregate

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/localgov-analytics/peers-cli/internal/clean"
	"github.com/localgov-analytics/peers-cli/internal/model"
)

// AggregatedFile is the combined per-LA output written to the primary folder.
const AggregatedFile = "aggregated.csv"

// SparsityFile is the per-LA sparsity output.
const SparsityFile = "sparsity.csv"

// Ratio replaces an aggregated numerator column with numerator/denominator
// scaled by Scale, under a new name.
type Ratio struct {
	Numerator   string
	Denominator string
	Scale       float64
	Name        string
}

// Dataset describes how one interim file is aggregated to LA level.
type Dataset struct {
	File string
	// Columns to aggregate, as named in the interim file.
	Columns []string
	// Mean averages per LA instead of summing.
	Mean bool
	// Ratios are applied after aggregation, in order.
	Ratios []Ratio
	// Drop lists columns removed after the ratios are computed.
	Drop []string
}

// frame is an intermediate per-LA column set, before it becomes a
// FeatureTable.
type frame struct {
	ids     []model.Identity
	order   []string
	columns map[string][]float64
}

// Aggregate rolls one interim dataset up to LA level.
func Aggregate(interimDir string, lookup *model.Lookup, lsoaColumn string, keys model.KeyColumns, ds Dataset) (*model.FeatureTable, error) {
	table, err := model.ReadLSOACSV(filepath.Join(interimDir, ds.File), lsoaColumn)
	if err != nil {
		return nil, err
	}
	return aggregateTable(table, lookup, keys, ds)
}

func aggregateTable(table *model.LSOATable, lookup *model.Lookup, keys model.KeyColumns, ds Dataset) (*model.FeatureTable, error) {
	ids := lookup.Identities()
	rowOf := make(map[string]int, len(ids))
	for i, id := range ids {
		rowOf[id.Code] = i
	}

	codes := table.Codes()
	dropped := 0
	laRow := make([]int, len(codes))
	for i, code := range codes {
		la, ok := lookup.LA(code)
		if !ok {
			laRow[i] = -1
			dropped++
			continue
		}
		laRow[i] = rowOf[la.Code]
	}
	if dropped > 0 {
		zap.L().Warn("aggregate: LSOAs missing from lookup dropped",
			zap.String("file", ds.File), zap.Int("dropped", dropped))
	}

	f := &frame{ids: ids, columns: make(map[string][]float64)}
	for _, name := range ds.Columns {
		values, err := table.Column(name)
		if err != nil {
			return nil, err
		}
		sums := make([]float64, len(ids))
		counts := make([]float64, len(ids))
		for i, v := range values {
			row := laRow[i]
			if row < 0 {
				continue
			}
			sums[row] += v
			counts[row]++
		}
		if ds.Mean {
			for i := range sums {
				if counts[i] > 0 {
					sums[i] /= counts[i]
				}
			}
		}
		f.order = append(f.order, name)
		f.columns[name] = sums
	}

	for _, r := range ds.Ratios {
		if err := f.applyRatio(r, ds.File); err != nil {
			return nil, err
		}
	}
	for _, name := range ds.Drop {
		f.drop(name)
	}

	return f.featureTable(keys)
}

func (f *frame) applyRatio(r Ratio, file string) error {
	num, ok := f.columns[r.Numerator]
	if !ok {
		return eris.Wrapf(model.ErrSchema, "aggregate: %s has no column %s", file, r.Numerator)
	}
	den, ok := f.columns[r.Denominator]
	if !ok {
		return eris.Wrapf(model.ErrSchema, "aggregate: %s has no column %s", file, r.Denominator)
	}
	values := make([]float64, len(num))
	for i := range num {
		values[i] = num[i] / den[i] * r.Scale
	}
	// The numerator is replaced in place, keeping its position.
	for i, name := range f.order {
		if name == r.Numerator {
			f.order[i] = r.Name
		}
	}
	delete(f.columns, r.Numerator)
	f.columns[r.Name] = values
	return nil
}

func (f *frame) drop(name string) {
	kept := f.order[:0]
	for _, n := range f.order {
		if n != name {
			kept = append(kept, n)
		}
	}
	f.order = kept
	delete(f.columns, name)
}

func (f *frame) featureTable(keys model.KeyColumns) (*model.FeatureTable, error) {
	out, err := model.NewFeatureTable(keys, f.ids)
	if err != nil {
		return nil, err
	}
	for _, name := range f.order {
		if err := out.AddColumn(name, f.columns[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Sparsity computes, per LA, the share of population living in low density
// LSOAs. Residents of very sparse LSOAs (at most 0.5 people per hectare)
// count double relative to sparse ones (up to 4 per hectare).
func Sparsity(interimDir string, lookup *model.Lookup, lsoaColumn string, keys model.KeyColumns) (*model.FeatureTable, error) {
	table, err := model.ReadLSOACSV(filepath.Join(interimDir, clean.PopulationFile), lsoaColumn)
	if err != nil {
		return nil, err
	}

	density, err := table.Column(clean.LSOADensityColumn)
	if err != nil {
		return nil, err
	}
	population, err := table.Column(clean.TotalPopulation)
	if err != nil {
		return nil, err
	}

	ids := lookup.Identities()
	rowOf := make(map[string]int, len(ids))
	for i, id := range ids {
		rowOf[id.Code] = i
	}

	total := make([]float64, len(ids))
	weighted := make([]float64, len(ids))
	for i, code := range table.Codes() {
		la, ok := lookup.LA(code)
		if !ok {
			continue
		}
		row := rowOf[la.Code]
		total[row] += population[i]
		perHectare := density[i] / 100
		switch {
		case perHectare <= 0.5:
			weighted[row] += 2 * population[i]
		case perHectare <= 4:
			weighted[row] += population[i]
		}
	}

	values := make([]float64, len(ids))
	for i := range values {
		if total[i] > 0 {
			values[i] = weighted[i] / total[i]
		}
	}

	out, err := model.NewFeatureTable(keys, ids)
	if err != nil {
		return nil, err
	}
	if err := out.AddColumn(SparsityColumn, values); err != nil {
		return nil, err
	}
	zap.L().Info("aggregate: sparsity computed", zap.Int("local_authorities", len(ids)))
	return out, nil
}

// All aggregates every standard dataset plus sparsity and joins them into a
// single per-LA table, written to the primary folder as aggregated.csv.
func All(interimDir, primaryDir string, lookup *model.Lookup, lsoaColumn string, keys model.KeyColumns) (*model.FeatureTable, error) {
	var combined *model.FeatureTable
	join := func(next *model.FeatureTable) error {
		if combined == nil {
			combined = next
			return nil
		}
		joined, dropped, err := combined.InnerJoin(next)
		if err != nil {
			return err
		}
		if dropped > 0 {
			zap.L().Warn("aggregate: local authorities dropped on join", zap.Int("dropped", dropped))
		}
		combined = joined
		return nil
	}

	for _, ds := range Datasets() {
		agg, err := Aggregate(interimDir, lookup, lsoaColumn, keys, ds)
		if err != nil {
			return nil, err
		}
		if err := join(agg); err != nil {
			return nil, err
		}
		if ds.File == clean.PopulationFile {
			sparsity, err := Sparsity(interimDir, lookup, lsoaColumn, keys)
			if err != nil {
				return nil, err
			}
			if err := sparsity.WriteCSV(filepath.Join(primaryDir, SparsityFile)); err != nil {
				return nil, err
			}
			if err := join(sparsity); err != nil {
				return nil, err
			}
		}
	}

	if err := combined.WriteCSV(filepath.Join(primaryDir, AggregatedFile)); err != nil {
		return nil, err
	}
	zap.L().Info("aggregate: all datasets aggregated",
		zap.Int("local_authorities", combined.Len()),
		zap.Int("features", len(combined.ColumnNames())))
	return combined, nil
}
