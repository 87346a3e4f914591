// Package output persists snapshots, artifacts and the manifest, and
// reads snapshots back for re-partitioning.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
)

// File and directory names under the output directory.
const (
	SnapshotFile = "blocklist.json"
	ArtifactDir  = "blocklists"
	ManifestFile = "manifest.json"
)

const filePerm = 0o644

// File is one written output file.
type File struct {
	// Key is the path relative to the output directory, slash separated.
	Key  string
	Path string
	Size int
}

// Writer writes a run's files into an output directory. All files of one
// call become visible together or not at all.
type Writer struct {
	dir string
	log logger.Logger
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string, log logger.Logger) *Writer {
	return &Writer{dir: dir, log: log}
}

// Dir is the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// SnapshotPath is where the snapshot is written.
func (w *Writer) SnapshotPath() string {
	return filepath.Join(w.dir, SnapshotFile)
}

// WriteAll writes the snapshot, every artifact and the manifest.
func (w *Writer) WriteAll(snapshot domain.Snapshot, artifacts []domain.Artifact, manifest domain.Manifest) ([]File, error) {
	af, err := artifactFiles(artifacts, manifest)
	if err != nil {
		return nil, err
	}
	return w.commit(append([]pendingFile{{key: SnapshotFile, value: snapshot}}, af...))
}

// WriteArtifacts writes the artifacts and the manifest only.
func (w *Writer) WriteArtifacts(artifacts []domain.Artifact, manifest domain.Manifest) ([]File, error) {
	af, err := artifactFiles(artifacts, manifest)
	if err != nil {
		return nil, err
	}
	return w.commit(af)
}

type pendingFile struct {
	key   string
	value any
	data  []byte
	temp  string
}

// ErrUnsafeArtifact is returned when an artifact file name would leave
// ArtifactDir or collide with another file of the same write.
var ErrUnsafeArtifact = errors.New("unsafe artifact file name")

// artifactFiles refuses the whole batch if any name is unsafe, so nothing
// is staged.
func artifactFiles(artifacts []domain.Artifact, manifest domain.Manifest) ([]pendingFile, error) {
	files := make([]pendingFile, 0, len(artifacts)+1)
	seen := map[string]struct{}{ManifestFile: {}}

	for _, a := range artifacts {
		if a.File != filepath.Base(a.File) || !filepath.IsLocal(a.File) || strings.ContainsAny(a.File, `/\`) {
			return nil, fmt.Errorf("%w: %q", ErrUnsafeArtifact, a.File)
		}
		if _, dup := seen[a.File]; dup {
			return nil, fmt.Errorf("%w: %q written twice", ErrUnsafeArtifact, a.File)
		}
		seen[a.File] = struct{}{}
		files = append(files, pendingFile{key: ArtifactDir + "/" + a.File, value: a})
	}

	return append(files, pendingFile{key: ArtifactDir + "/" + ManifestFile, value: manifest}), nil
}

// commit stages every file as a temp file next to its destination, then
// renames them into place. If staging fails, the temp files are removed
// and no existing file is touched.
func (w *Writer) commit(files []pendingFile) ([]File, error) {
	for i := range files {
		data, err := json.MarshalIndent(files[i].value, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", files[i].key, err)
		}
		files[i].data = append(data, '\n')
	}

	if err := w.stage(files); err != nil {
		removeTemps(files)
		return nil, err
	}

	written := make([]File, 0, len(files))
	for i, f := range files {
		dest := w.path(f.key)
		if err := os.Rename(f.temp, dest); err != nil {
			removeTemps(files[i:])
			return nil, fmt.Errorf("replace %s: %w", dest, err)
		}
		written = append(written, File{Key: f.key, Path: dest, Size: len(f.data)})
	}

	w.log.Debug("Output files written",
		logger.String("dir", w.dir),
		logger.Int("files", len(written)),
	)

	return written, nil
}

func (w *Writer) stage(files []pendingFile) error {
	for i := range files {
		dest := w.path(files[i].key)
		dir := filepath.Dir(dest)

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}

		temp, err := writeTemp(dir, filepath.Base(dest), files[i].data)
		if err != nil {
			return fmt.Errorf("stage %s: %w", dest, err)
		}
		files[i].temp = temp
	}
	return nil
}

func writeTemp(dir, base string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return "", err
	}

	_, writeErr := f.Write(data)
	syncErr := f.Sync()
	closeErr := f.Close()
	if err = errors.Join(writeErr, syncErr, closeErr); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	if err = os.Chmod(f.Name(), filePerm); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}

func removeTemps(files []pendingFile) {
	for _, f := range files {
		if f.temp != "" {
			_ = os.Remove(f.temp)
		}
	}
}

func (w *Writer) path(key string) string {
	return filepath.Join(w.dir, filepath.FromSlash(key))
}
