package distance

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/localgov-analytics/peers-cli/internal/model"
)

// Matrix is the symmetric, zero-diagonal distance matrix over all LAs,
// indexed by LA name in ascending order.
type Matrix struct {
	names []string
	dists *mat.SymDense
}

// Pair is one row of the long-form pairwise table. Every unordered pair
// appears twice, once in each direction, so peer queries work from either
// side.
type Pair struct {
	LA1      string
	LA2      string
	Distance float64
}

// Compute builds the full pairwise distance matrix from the assembled
// feature table. Rows are ordered by LA name so output files are stable
// across runs.
func Compute(table *model.FeatureTable, metric Metric) (*Matrix, error) {
	if table.Len() < 2 {
		return nil, eris.Wrapf(model.ErrSchema, "distance needs at least 2 local authorities (got %d)", table.Len())
	}
	if len(table.ColumnNames()) == 0 {
		return nil, eris.Wrap(model.ErrSchema, "distance: feature table has no feature columns")
	}

	sorted, err := table.SortByName()
	if err != nil {
		return nil, err
	}

	names := sorted.Names()
	rows := sorted.Matrix()
	n := len(rows)

	zap.L().Info("distance: computing pairwise distances",
		zap.Int("local_authorities", n),
		zap.Int("features", len(sorted.ColumnNames())),
	)

	dists := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dists.SetSym(i, j, metric(rows[i], rows[j]))
		}
	}

	return &Matrix{names: names, dists: dists}, nil
}

// Len returns the number of LAs in the matrix.
func (m *Matrix) Len() int { return len(m.names) }

// Names returns the LA names in matrix order.
func (m *Matrix) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// At returns the distance between the i-th and j-th LAs.
func (m *Matrix) At(i, j int) float64 { return m.dists.At(i, j) }

// Pairwise reshapes the matrix into the long-form table: every ordered pair
// of distinct LAs, sorted by LA_1 ascending then distance ascending. Ties on
// distance keep matrix order. The result has exactly n*(n-1) rows.
func (m *Matrix) Pairwise() []Pair {
	n := len(m.names)
	pairs := make([]Pair, 0, n*(n-1))

	for i := 0; i < n; i++ {
		row := make([]Pair, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			row = append(row, Pair{LA1: m.names[i], LA2: m.names[j], Distance: m.At(i, j)})
		}
		sort.SliceStable(row, func(a, b int) bool {
			return row[a].Distance < row[b].Distance
		})
		pairs = append(pairs, row...)
	}

	return pairs
}

// WritePairwise saves the long-form table as CSV with columns
// <laName>_1, <laName>_2, distance.
func WritePairwise(path, laName string, pairs []Pair) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "distance: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write([]string{laName + "_1", laName + "_2", "distance"}); err != nil {
		return eris.Wrapf(err, "distance: write header %s", path)
	}
	for _, p := range pairs {
		row := []string{p.LA1, p.LA2, strconv.FormatFloat(p.Distance, 'f', -1, 64)}
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "distance: write row %s", path)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "distance: flush %s", path)
	}
	return nil
}
