package artifact

import (
	"os"
	"path/filepath"

	"github.com/vnykmshr/memoproxy/internal/model"
	"github.com/vnykmshr/memoproxy/pkg/memoize"
)

// Stage collects the artifacts of a pass in a sibling directory. Commit swaps
// them into the output directory; until then the previous artifacts stay in
// place.
type Stage struct {
	m    *Manager
	dir  string
	done bool
}

// Stage opens a staging directory next to the output directory. The output
// directory must exist.
func (m *Manager) Stage() (*Stage, error) {
	dir, err := os.MkdirTemp(filepath.Dir(m.dir), "."+filepath.Base(m.dir)+"-stage-*")
	if err != nil {
		return nil, &TargetDirectoryError{Path: m.dir, Reason: "cannot create staging directory", Err: err}
	}
	m.logger.Debug("opened stage", memoize.F("stage", dir))
	return &Stage{m: m, dir: dir}, nil
}

// Dir returns the staging directory
func (s *Stage) Dir() string {
	return s.dir
}

// Write stores the artifact in the staging directory
func (s *Stage) Write(a model.GeneratedArtifact) (string, error) {
	return writeFile(s.dir, a)
}

// Commit wipes the output directory and moves every staged file into it
func (s *Stage) Commit() (WipeResult, error) {
	res, err := s.m.Wipe()
	if err != nil {
		return res, err
	}

	names, err := listGenerated(s.dir, s.m.suffix)
	if err != nil {
		return res, &TargetDirectoryError{Path: s.dir, Reason: "cannot list staging directory", Err: err}
	}
	for _, name := range names {
		dst := filepath.Join(s.m.dir, name)
		if err := os.Rename(filepath.Join(s.dir, name), dst); err != nil {
			return res, &ProxyWriteError{Path: dst, Err: err}
		}
	}

	s.done = true
	if err := os.RemoveAll(s.dir); err != nil {
		s.m.logger.Warn("could not remove staging directory", memoize.F("stage", s.dir), memoize.F("error", err))
	}
	return res, nil
}

// Discard removes the staging directory. It is a no-op after Commit.
func (s *Stage) Discard() {
	if s.done {
		return
	}
	s.done = true
	if err := os.RemoveAll(s.dir); err != nil {
		s.m.logger.Warn("could not remove staging directory", memoize.F("stage", s.dir), memoize.F("error", err))
	}
}
