// Package model holds the data structures shared across pipeline stages:
// the per-LA feature table and the identity keys it is indexed by.
package model

import (
	"sort"

	"github.com/rotisserie/eris"
)

// ErrSchema indicates a structural problem with input data: a missing key or
// feature column, a duplicate LA identity, or a non-numeric feature value.
var ErrSchema = eris.New("model: schema violation")

// KeyColumns names the two identity columns of a feature table,
// e.g. {Code: "UTLA22CD", Name: "UTLA22NM"}.
type KeyColumns struct {
	Code string
	Name string
}

// Identity is one local authority, identified by its ONS code and name.
// Code and name are 1:1 within a valid table.
type Identity struct {
	Code string
	Name string
}

// FeatureTable is a rectangular table of numeric feature columns keyed by LA
// identity. Row order is fixed at construction; columns keep insertion order.
type FeatureTable struct {
	keys    KeyColumns
	ids     []Identity
	order   []string
	columns map[string][]float64
}

// NewFeatureTable builds an empty table over the given identities. It rejects
// duplicate codes and code/name mappings that are not 1:1.
func NewFeatureTable(keys KeyColumns, ids []Identity) (*FeatureTable, error) {
	byCode := make(map[string]string, len(ids))
	byName := make(map[string]string, len(ids))
	for _, id := range ids {
		if prev, ok := byCode[id.Code]; ok {
			if prev != id.Name {
				return nil, eris.Wrapf(ErrSchema, "code %s maps to both %q and %q", id.Code, prev, id.Name)
			}
			return nil, eris.Wrapf(ErrSchema, "duplicate identity %s (%s)", id.Code, id.Name)
		}
		if prev, ok := byName[id.Name]; ok {
			return nil, eris.Wrapf(ErrSchema, "name %q maps to both %s and %s", id.Name, prev, id.Code)
		}
		byCode[id.Code] = id.Name
		byName[id.Name] = id.Code
	}

	rows := make([]Identity, len(ids))
	copy(rows, ids)

	return &FeatureTable{
		keys:    keys,
		ids:     rows,
		columns: make(map[string][]float64),
	}, nil
}

// Keys returns the identity column names.
func (t *FeatureTable) Keys() KeyColumns { return t.keys }

// Len returns the number of rows (LAs).
func (t *FeatureTable) Len() int { return len(t.ids) }

// Identities returns a copy of the row identities in table order.
func (t *FeatureTable) Identities() []Identity {
	out := make([]Identity, len(t.ids))
	copy(out, t.ids)
	return out
}

// Names returns the LA names in table order.
func (t *FeatureTable) Names() []string {
	out := make([]string, len(t.ids))
	for i, id := range t.ids {
		out[i] = id.Name
	}
	return out
}

// ColumnNames returns the feature column names in insertion order.
func (t *FeatureTable) ColumnNames() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// HasColumn reports whether the named feature column exists.
func (t *FeatureTable) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Column returns the values of the named column in row order.
func (t *FeatureTable) Column(name string) ([]float64, bool) {
	vals, ok := t.columns[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(vals))
	copy(out, vals)
	return out, true
}

// AddColumn appends a feature column. The values must align with the table's
// row order and the name must be unused.
func (t *FeatureTable) AddColumn(name string, values []float64) error {
	if name == t.keys.Code || name == t.keys.Name {
		return eris.Wrapf(ErrSchema, "column %q collides with a key column", name)
	}
	if _, ok := t.columns[name]; ok {
		return eris.Wrapf(ErrSchema, "duplicate column %q", name)
	}
	if len(values) != len(t.ids) {
		return eris.Wrapf(ErrSchema, "column %q has %d values for %d rows", name, len(values), len(t.ids))
	}
	vals := make([]float64, len(values))
	copy(vals, values)
	t.order = append(t.order, name)
	t.columns[name] = vals
	return nil
}

// Select returns a new table over the same rows containing only the named
// columns, in the given order.
func (t *FeatureTable) Select(names ...string) (*FeatureTable, error) {
	out, err := NewFeatureTable(t.keys, t.ids)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		vals, ok := t.columns[name]
		if !ok {
			return nil, eris.Wrapf(ErrSchema, "column %q not present", name)
		}
		if err := out.AddColumn(name, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// InnerJoin merges the columns of other into t, keeping only identities
// present in both tables and preserving t's row order. The second return is
// the number of rows of t that were dropped because other lacks them.
func (t *FeatureTable) InnerJoin(other *FeatureTable) (*FeatureTable, int, error) {
	rowOf := make(map[Identity]int, other.Len())
	for i, id := range other.ids {
		rowOf[id] = i
	}

	var kept []Identity
	var keptIdx []int
	var otherIdx []int
	for i, id := range t.ids {
		j, ok := rowOf[id]
		if !ok {
			continue
		}
		kept = append(kept, id)
		keptIdx = append(keptIdx, i)
		otherIdx = append(otherIdx, j)
	}

	out, err := NewFeatureTable(t.keys, kept)
	if err != nil {
		return nil, 0, err
	}
	for _, name := range t.order {
		src := t.columns[name]
		vals := make([]float64, len(kept))
		for i, ri := range keptIdx {
			vals[i] = src[ri]
		}
		if err := out.AddColumn(name, vals); err != nil {
			return nil, 0, err
		}
	}
	for _, name := range other.order {
		src := other.columns[name]
		vals := make([]float64, len(kept))
		for i, rj := range otherIdx {
			vals[i] = src[rj]
		}
		if err := out.AddColumn(name, vals); err != nil {
			return nil, 0, err
		}
	}

	return out, t.Len() - len(kept), nil
}

// SortByName returns a copy of the table with rows ordered by LA name
// ascending. Distance output is keyed by name, so a fixed row order keeps
// run artifacts byte-stable.
func (t *FeatureTable) SortByName() (*FeatureTable, error) {
	idx := make([]int, len(t.ids))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return t.ids[idx[a]].Name < t.ids[idx[b]].Name
	})

	ids := make([]Identity, len(idx))
	for i, ri := range idx {
		ids[i] = t.ids[ri]
	}
	out, err := NewFeatureTable(t.keys, ids)
	if err != nil {
		return nil, err
	}
	for _, name := range t.order {
		src := t.columns[name]
		vals := make([]float64, len(idx))
		for i, ri := range idx {
			vals[i] = src[ri]
		}
		if err := out.AddColumn(name, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Matrix returns the feature values as a dense row-major matrix, one row per
// LA, columns in table order.
func (t *FeatureTable) Matrix() [][]float64 {
	rows := make([][]float64, len(t.ids))
	for i := range rows {
		row := make([]float64, len(t.order))
		for j, name := range t.order {
			row[j] = t.columns[name][i]
		}
		rows[i] = row
	}
	return rows
}
