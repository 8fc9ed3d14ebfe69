// Package runfs manages the on-disk lifecycle of a pipeline run: the
// timestamped run folder, its output subfolders, the stable latest location,
// and the config snapshot.
package runfs

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	runsFolder            = "pipeline_runs"
	latestFolder          = "latest"
	logsFolder            = "logs"
	outputsFolder         = "outputs"
	reportsFolder         = "reports"
	transformationsFolder = "transformations"
)

// Run locates everything a single pipeline run writes.
type Run struct {
	// ID is the run folder name: timestamp plus hash.
	ID string
	// Root is <output>/pipeline_runs/<ID>.
	Root string
	// Outputs, Reports, Transformations are children of Root.
	Outputs         string
	Reports         string
	Transformations string
	// Latest is the stable <output>/latest folder final artifacts are
	// copied into.
	Latest string
	// LogFile is <output>/logs/<ID>.log.
	LogFile string
}

// New creates the folder tree for a fresh run. customHash, when non-empty,
// replaces the generated hash; longer values are truncated to hashLength.
func New(outputDir string, hashLength int, customHash string, now time.Time) (*Run, error) {
	hash := customHash
	if hash == "" {
		hash = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if len(hash) > hashLength {
		hash = hash[:hashLength]
	}

	id := now.Format("02-01-2006_15-04-05") + "_" + hash
	root := filepath.Join(outputDir, runsFolder, id)

	r := &Run{
		ID:              id,
		Root:            root,
		Outputs:         filepath.Join(root, outputsFolder),
		Reports:         filepath.Join(root, reportsFolder),
		Transformations: filepath.Join(root, transformationsFolder),
		Latest:          filepath.Join(outputDir, latestFolder),
		LogFile:         filepath.Join(outputDir, logsFolder, id+".log"),
	}

	for _, dir := range []string{
		r.Outputs, r.Reports, r.Transformations, r.Latest,
		filepath.Join(outputDir, logsFolder),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "runfs: create %s", dir)
		}
	}

	zap.L().Info("runfs: run folder created", zap.String("run_id", id), zap.String("root", root))
	return r, nil
}

// SnapshotConfig writes the effective configuration into the run folder so
// every run records exactly what produced it.
func (r *Run) SnapshotConfig(cfg any) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return eris.Wrap(err, "runfs: marshal config snapshot")
	}
	path := filepath.Join(r.Root, "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "runfs: write %s", path)
	}
	return nil
}

// Publish copies a final artifact from the run's outputs folder to the
// stable latest location.
func (r *Run) Publish(filename string) error {
	return copyFile(
		filepath.Join(r.Outputs, filename),
		filepath.Join(r.Latest, filename),
	)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "runfs: open %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return eris.Wrapf(err, "runfs: create %s", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return eris.Wrapf(err, "runfs: copy %s to %s", src, dst)
	}
	return out.Close()
}
