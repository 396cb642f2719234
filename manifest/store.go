package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/vinayprograms/speckit/errors"
	"github.com/vinayprograms/speckit/logging"
)

// Fixed project-relative locations.
const (
	// DirName is the state directory under the project root.
	DirName = ".speckit"

	// FileName is the manifest file inside DirName.
	FileName = "manifest.json"

	// LockName is the sibling lock file inside DirName.
	LockName = "manifest.json.lock"
)

// Store arbitrates access to the manifest file for every process touching
// the same project. All mutation goes through WithLock.
type Store struct {
	root     string // project root
	dir      string // <root>/.speckit
	path     string // <root>/.speckit/manifest.json
	lockPath string // <root>/.speckit/manifest.json.lock
	logger   *logging.Logger
}

// NewStore creates a store for the project rooted at root.
func NewStore(root string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.New()
	}
	dir := filepath.Join(root, DirName)
	return &Store{
		root:     root,
		dir:      dir,
		path:     filepath.Join(dir, FileName),
		lockPath: filepath.Join(dir, LockName),
		logger:   logger.WithComponent("manifest"),
	}
}

// Root returns the project root the store was created with.
func (s *Store) Root() string {
	return s.root
}

// Path returns the manifest file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the manifest without taking the lock, for read-only observers.
// A missing or unparsable file yields an empty manifest, never an error:
// the tool stays usable even after manual tampering.
func (s *Store) Load() *Manifest {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return NewManifest()
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("manifest unparsable, treating as empty", map[string]interface{}{
			"path": s.path, "error": err.Error(),
		})
		return NewManifest()
	}
	if m.Version == 0 {
		m.Version = Version
	}
	return &m
}

// WithLock runs updater against the loaded manifest under the cross-process
// lock, then saves atomically. The updater may mutate the manifest in place;
// if it returns an error nothing is saved. The lock is released
// unconditionally, even if the update panics.
func (s *Store) WithLock(updater func(m *Manifest) error) error {
	if err := s.acquireLock(); err != nil {
		return err
	}
	defer s.releaseLock()

	m := s.Load()
	if err := updater(m); err != nil {
		return err
	}
	return s.save(m)
}

// save writes the manifest to a temp file in the same directory and renames
// it over the target, so concurrent readers never observe a half-written
// file.
func (s *Store) save(m *Manifest) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Internal("creating manifest directory", errors.WithCause(err))
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Internal("encoding manifest", errors.WithCause(err))
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, FileName+".tmp-*")
	if err != nil {
		return errors.Internal("creating manifest temp file", errors.WithCause(err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Internal("writing manifest temp file", errors.WithCause(err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Internal("closing manifest temp file", errors.WithCause(err))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Internal("replacing manifest", errors.WithCause(err))
	}
	return nil
}
