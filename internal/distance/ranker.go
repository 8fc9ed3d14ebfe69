package distance

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/localgov-analytics/peers-cli/internal/config"
)

// PeerRow is one LA and its k nearest peers, closest first.
type PeerRow struct {
	LA    string
	Peers []string
}

// Rank extracts the k nearest other LAs for every LA in the matrix. Ties on
// distance break on matrix order (stable sort), so rankings are
// deterministic. k must leave at least one other LA un-ranked-against, i.e.
// k < number of LAs.
func Rank(m *Matrix, k int) ([]PeerRow, error) {
	n := m.Len()
	if k < 1 {
		return nil, eris.Wrapf(config.ErrConfiguration, "peer count must be at least 1 (got %d)", k)
	}
	if k >= n {
		return nil, eris.Wrapf(config.ErrConfiguration, "cannot rank %d peers with only %d local authorities", k, n)
	}

	names := m.Names()
	rows := make([]PeerRow, 0, n)
	for i := 0; i < n; i++ {
		idx := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				idx = append(idx, j)
			}
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return m.At(i, idx[a]) < m.At(i, idx[b])
		})

		peers := make([]string, k)
		for p := 0; p < k; p++ {
			peers[p] = names[idx[p]]
		}
		rows = append(rows, PeerRow{LA: names[i], Peers: peers})
	}

	zap.L().Info("distance: ranked nearest neighbours",
		zap.Int("local_authorities", n),
		zap.Int("peers_per_la", k),
	)

	return rows, nil
}

// Filter returns the peer rows whose LA name is in keep, preserving order.
func Filter(rows []PeerRow, keep []string) []PeerRow {
	want := make(map[string]bool, len(keep))
	for _, name := range keep {
		want[name] = true
	}

	var out []PeerRow
	for _, row := range rows {
		if want[row.LA] {
			out = append(out, row)
		}
	}
	return out
}

// WritePeers saves peer rankings as CSV: the LA name column followed by one
// column per rank position.
func WritePeers(path, laName string, rows []PeerRow, k int) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "distance: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := make([]string, 0, k+1)
	header = append(header, laName)
	for i := 1; i <= k; i++ {
		header = append(header, strconv.Itoa(i))
	}
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "distance: write header %s", path)
	}

	for _, row := range rows {
		rec := append([]string{row.LA}, row.Peers...)
		if err := w.Write(rec); err != nil {
			return eris.Wrapf(err, "distance: write row %s", path)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "distance: flush %s", path)
	}
	return nil
}
