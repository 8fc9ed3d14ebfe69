package runfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesRunTree(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	r, err := New(base, 6, "", now)
	require.NoError(t, err)

	assert.Len(t, r.ID, len("14-03-2026_09-26-53_")+6)
	assert.Equal(t, "14-03-2026_09-26-53", r.ID[:len("14-03-2026_09-26-53")])

	for _, dir := range []string{r.Outputs, r.Reports, r.Transformations, r.Latest} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.Equal(t, filepath.Join(base, "logs", r.ID+".log"), r.LogFile)
}

func TestNew_CustomHash(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	r, err := New(base, 6, "baseline", now)
	require.NoError(t, err)
	assert.Equal(t, "14-03-2026_09-26-53_baseli", r.ID)

	r, err = New(base, 6, "v2", now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "14-03-2026_09-26-54_v2", r.ID)
}

func TestSnapshotConfig(t *testing.T) {
	base := t.TempDir()
	r, err := New(base, 4, "snap", time.Now())
	require.NoError(t, err)

	cfg := struct {
		Peers int `yaml:"peers"`
	}{Peers: 15}
	require.NoError(t, r.SnapshotConfig(cfg))

	data, err := os.ReadFile(filepath.Join(r.Root, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "peers: 15")
}

func TestPublish_CopiesToLatest(t *testing.T) {
	base := t.TempDir()
	r, err := New(base, 4, "pub", time.Now())
	require.NoError(t, err)

	src := filepath.Join(r.Outputs, "peers.csv")
	require.NoError(t, os.WriteFile(src, []byte("a,b\n1,2\n"), 0o644))

	require.NoError(t, r.Publish("peers.csv"))

	data, err := os.ReadFile(filepath.Join(r.Latest, "peers.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestPublish_MissingSource(t *testing.T) {
	base := t.TempDir()
	r, err := New(base, 4, "miss", time.Now())
	require.NoError(t, err)

	assert.Error(t, r.Publish("absent.csv"))
}
