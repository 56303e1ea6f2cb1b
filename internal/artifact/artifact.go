// Package artifact manages the directory generated proxies are written to.
package artifact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vnykmshr/memoproxy/internal/model"
	"github.com/vnykmshr/memoproxy/pkg/memoize"
)

// DefaultSuffix ends the name of every file a Manager owns
const DefaultSuffix = "_memo.go"

// Config configures a Manager
type Config struct {
	// Dir is the output directory
	Dir string

	// Suffix selects the files Wipe deletes; defaults to DefaultSuffix
	Suffix string

	Logger memoize.Logger
}

// Manager owns the output directory of a pass. It does not lock the
// directory; two passes writing the same directory race.
type Manager struct {
	dir    string
	suffix string
	logger memoize.Logger
}

// WipeResult counts the files a wipe touched
type WipeResult struct {
	Removed int
	Failed  int
}

// New creates a Manager
func New(cfg Config) *Manager {
	if cfg.Suffix == "" {
		cfg.Suffix = DefaultSuffix
	}
	if cfg.Logger == nil {
		cfg.Logger = memoize.NewNoOpLogger()
	}
	return &Manager{dir: filepath.Clean(cfg.Dir), suffix: cfg.Suffix, logger: cfg.Logger}
}

// Dir returns the output directory
func (m *Manager) Dir() string {
	return m.dir
}

// EnsureDirectory creates the output directory and its parents if absent
func (m *Manager) EnsureDirectory() error {
	info, err := os.Stat(m.dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return &TargetDirectoryError{Path: m.dir, Reason: "exists and is not a directory"}
		}
		return nil
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(m.dir, 0o755); err != nil {
			return &TargetDirectoryError{Path: m.dir, Reason: "cannot create", Err: err}
		}
		m.logger.Debug("created target directory", memoize.F("dir", m.dir))
		return nil
	default:
		return &TargetDirectoryError{Path: m.dir, Reason: "cannot stat", Err: err}
	}
}

// Generated lists the generated files currently in the directory, sorted
func (m *Manager) Generated() ([]string, error) {
	return listGenerated(m.dir, m.suffix)
}

func listGenerated(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Wipe deletes every generated file. A file that cannot be deleted is logged
// and counted; only an unreadable directory is an error.
func (m *Manager) Wipe() (WipeResult, error) {
	var res WipeResult

	names, err := m.Generated()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, nil
		}
		return res, &TargetDirectoryError{Path: m.dir, Reason: "cannot list", Err: err}
	}

	for _, name := range names {
		path := filepath.Join(m.dir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			res.Failed++
			m.logger.Warn("could not delete stale proxy", memoize.F("file", path), memoize.F("error", err))
			continue
		}
		res.Removed++
	}
	return res, nil
}

// Write stores the artifact in the output directory
func (m *Manager) Write(a model.GeneratedArtifact) (string, error) {
	return writeFile(m.dir, a)
}

// writeFile writes through a temp file in dir so a reader never sees a
// partial file
func writeFile(dir string, a model.GeneratedArtifact) (string, error) {
	path := filepath.Join(dir, a.FileName)
	if a.FileName == "" || filepath.Base(a.FileName) != a.FileName {
		return path, &ProxyWriteError{Path: path, Err: errors.New("invalid file name")}
	}

	tmp, err := os.CreateTemp(dir, "."+a.FileName+".tmp-*")
	if err != nil {
		return path, &ProxyWriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(a.Source); err != nil {
		_ = tmp.Close()
		cleanup()
		return path, &ProxyWriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return path, &ProxyWriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return path, &ProxyWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return path, &ProxyWriteError{Path: path, Err: err}
	}
	return path, nil
}
