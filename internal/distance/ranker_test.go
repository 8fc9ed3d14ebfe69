package distance

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localgov-analytics/peers-cli/internal/config"
	"github.com/localgov-analytics/peers-cli/internal/model"
)

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRank_SelfNeverAppears(t *testing.T) {
	m, err := Compute(scenarioTable(t), Euclidean)
	require.NoError(t, err)

	rows, err := Rank(m, 3)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	for _, row := range rows {
		assert.Len(t, row.Peers, 3)
		assert.NotContains(t, row.Peers, row.LA)
	}
}

func TestRank_FirstPeerIsNearest(t *testing.T) {
	m, err := Compute(scenarioTable(t), Euclidean)
	require.NoError(t, err)

	rows, err := Rank(m, 1)
	require.NoError(t, err)

	byLA := map[string][]string{}
	for _, row := range rows {
		byLA[row.LA] = row.Peers
	}

	// With k=1 Ashford's peer is Barnet (0.0101 away, closer than Camden).
	assert.Equal(t, []string{"Barnet"}, byLA["Ashford"])
	assert.Equal(t, []string{"Camden"}, byLA["Dover"])
}

func TestRank_TiesBreakOnMatrixOrder(t *testing.T) {
	ids := []model.Identity{
		{Code: "E001", Name: "Ashford"},
		{Code: "E002", Name: "Barnet"},
		{Code: "E003", Name: "Camden"},
	}
	table, err := model.NewFeatureTable(testKeys, ids)
	require.NoError(t, err)
	// Barnet and Camden are equidistant from Ashford.
	require.NoError(t, table.AddColumn("f_best", []float64{0, 1, -1}))

	m, err := Compute(table, Euclidean)
	require.NoError(t, err)

	rows, err := Rank(m, 2)
	require.NoError(t, err)
	assert.Equal(t, "Ashford", rows[0].LA)
	assert.Equal(t, []string{"Barnet", "Camden"}, rows[0].Peers)
}

func TestRank_KTooLarge(t *testing.T) {
	m, err := Compute(scenarioTable(t), Euclidean)
	require.NoError(t, err)

	_, err = Rank(m, 4)
	require.Error(t, err)
	assert.True(t, eris.Is(err, config.ErrConfiguration))
}

func TestRank_KTooSmall(t *testing.T) {
	m, err := Compute(scenarioTable(t), Euclidean)
	require.NoError(t, err)

	_, err = Rank(m, 0)
	require.Error(t, err)
	assert.True(t, eris.Is(err, config.ErrConfiguration))
}

func TestFilter(t *testing.T) {
	rows := []PeerRow{
		{LA: "Ashford", Peers: []string{"Barnet"}},
		{LA: "Barnet", Peers: []string{"Ashford"}},
		{LA: "Camden", Peers: []string{"Barnet"}},
	}

	got := Filter(rows, []string{"Camden", "Ashford"})
	require.Len(t, got, 2)
	assert.Equal(t, "Ashford", got[0].LA)
	assert.Equal(t, "Camden", got[1].LA)
}

func TestWritePeers(t *testing.T) {
	m, err := Compute(scenarioTable(t), Euclidean)
	require.NoError(t, err)

	rows, err := Rank(m, 2)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "peers.csv")
	require.NoError(t, WritePeers(path, "UTLA22NM", rows, 2))

	records := readCSVFile(t, path)
	assert.Equal(t, []string{"UTLA22NM", "1", "2"}, records[0])
	assert.Len(t, records, 5)
	assert.Equal(t, "Ashford", records[1][0])
	assert.Equal(t, "Barnet", records[1][1])
}
