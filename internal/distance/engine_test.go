package distance

import (
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localgov-analytics/peers-cli/internal/model"
)

var testKeys = model.KeyColumns{Code: "UTLA22CD", Name: "UTLA22NM"}

// scenarioTable is the 4-LA single-feature scenario: raw values
// [10, 20, 30, 1000] normalized to [0, 1].
func scenarioTable(t *testing.T) *model.FeatureTable {
	t.Helper()

	ids := []model.Identity{
		{Code: "E001", Name: "Ashford"},
		{Code: "E002", Name: "Barnet"},
		{Code: "E003", Name: "Camden"},
		{Code: "E004", Name: "Dover"},
	}
	table, err := model.NewFeatureTable(testKeys, ids)
	require.NoError(t, err)
	require.NoError(t, table.AddColumn("density_best", []float64{0, 10.0 / 990, 20.0 / 990, 1}))
	return table
}

func TestCompute_SymmetricZeroDiagonal(t *testing.T) {
	m, err := Compute(scenarioTable(t), Euclidean)
	require.NoError(t, err)

	n := m.Len()
	require.Equal(t, 4, n)
	for i := 0; i < n; i++ {
		assert.Zero(t, m.At(i, i))
		for j := 0; j < n; j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i))
		}
	}
}

func TestCompute_FarthestPair(t *testing.T) {
	m, err := Compute(scenarioTable(t), Euclidean)
	require.NoError(t, err)

	// Ashford (0) to Dover (1) is the largest distance in the matrix.
	largest := 0.0
	var li, lj int
	for i := 0; i < m.Len(); i++ {
		for j := 0; j < m.Len(); j++ {
			if m.At(i, j) > largest {
				largest, li, lj = m.At(i, j), i, j
			}
		}
	}
	names := m.Names()
	assert.ElementsMatch(t, []string{"Ashford", "Dover"}, []string{names[li], names[lj]})
	assert.InDelta(t, 1.0, largest, 1e-12)
}

func TestCompute_RowsSortedByName(t *testing.T) {
	ids := []model.Identity{
		{Code: "E003", Name: "Camden"},
		{Code: "E001", Name: "Ashford"},
		{Code: "E002", Name: "Barnet"},
	}
	table, err := model.NewFeatureTable(testKeys, ids)
	require.NoError(t, err)
	require.NoError(t, table.AddColumn("f_best", []float64{3, 1, 2}))

	m, err := Compute(table, Euclidean)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ashford", "Barnet", "Camden"}, m.Names())
	assert.InDelta(t, 1.0, m.At(0, 1), 1e-12)
}

func TestCompute_TooFewRows(t *testing.T) {
	table, err := model.NewFeatureTable(testKeys, []model.Identity{{Code: "E001", Name: "Ashford"}})
	require.NoError(t, err)
	require.NoError(t, table.AddColumn("f_best", []float64{1}))

	_, err = Compute(table, Euclidean)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrSchema))
}

func TestCompute_NoFeatureColumns(t *testing.T) {
	table, err := model.NewFeatureTable(testKeys, []model.Identity{
		{Code: "E001", Name: "Ashford"},
		{Code: "E002", Name: "Barnet"},
	})
	require.NoError(t, err)

	_, err = Compute(table, Euclidean)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrSchema))
}

func TestPairwise_RowCountAndNoSelfPairs(t *testing.T) {
	m, err := Compute(scenarioTable(t), Euclidean)
	require.NoError(t, err)

	pairs := m.Pairwise()
	assert.Len(t, pairs, 4*3)
	for _, p := range pairs {
		assert.NotEqual(t, p.LA1, p.LA2)
	}
}

func TestPairwise_SortedByLAThenDistance(t *testing.T) {
	m, err := Compute(scenarioTable(t), Euclidean)
	require.NoError(t, err)

	pairs := m.Pairwise()
	for i := 1; i < len(pairs); i++ {
		prev, cur := pairs[i-1], pairs[i]
		if prev.LA1 == cur.LA1 {
			assert.LessOrEqual(t, prev.Distance, cur.Distance)
		} else {
			assert.Less(t, prev.LA1, cur.LA1)
		}
	}

	// Ashford's nearest is Barnet.
	assert.Equal(t, "Ashford", pairs[0].LA1)
	assert.Equal(t, "Barnet", pairs[0].LA2)
}

func TestMetrics_ByName(t *testing.T) {
	for _, name := range MetricNames() {
		m, err := ByName(name)
		require.NoError(t, err)
		assert.NotNil(t, m)
	}

	_, err := ByName("cosine")
	require.Error(t, err)
}

func TestMetrics_Values(t *testing.T) {
	a := []float64{0, 0}
	b := []float64{3, 4}

	assert.InDelta(t, 5, Euclidean(a, b), 1e-12)
	assert.InDelta(t, 25, SqEuclidean(a, b), 1e-12)
	assert.InDelta(t, 7, Manhattan(a, b), 1e-12)
	assert.InDelta(t, 4, Chebyshev(a, b), 1e-12)
}

func TestWritePairwise(t *testing.T) {
	m, err := Compute(scenarioTable(t), Euclidean)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "distances.csv")
	require.NoError(t, WritePairwise(path, "UTLA22NM", m.Pairwise()))

	table := readCSVFile(t, path)
	assert.Equal(t, []string{"UTLA22NM_1", "UTLA22NM_2", "distance"}, table[0])
	assert.Len(t, table, 1+4*3)
}
