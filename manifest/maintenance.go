package manifest

import (
	"os"
	"path/filepath"
	"sort"
)

// RecordedRun couples a historical run with the spec identity it belongs to,
// used to backfill the manifest from on-disk result bundles.
type RecordedRun struct {
	SpecKey string
	Source  string
	Run     Run
}

// Reconcile backfills manifest entries from historical result bundles. Runs
// whose IDs are already represented are skipped, so reconciling twice never
// duplicates history. Returns the number of runs added.
func (s *Store) Reconcile(recorded []RecordedRun) (int, error) {
	// Oldest first, so appended histories stay chronological.
	sorted := append([]RecordedRun{}, recorded...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Run.Timestamp.Before(sorted[j].Run.Timestamp)
	})

	added := 0
	err := s.WithLock(func(m *Manifest) error {
		for _, rec := range sorted {
			if rec.SpecKey == "" || rec.Run.RunID == "" {
				continue
			}
			e := m.FindOrCreateEntry(rec.SpecKey, rec.Source)
			if e.HasRun(rec.Run.RunID) {
				continue
			}
			e.AppendRun(rec.Run)
			added++
		}
		return nil
	})
	return added, err
}

// Prune drops entries whose backing file no longer exists. Hash-keyed
// ad-hoc entries have no file to check and are always kept. Returns the
// removed identity keys.
func (s *Store) Prune() ([]string, error) {
	var removed []string
	err := s.WithLock(func(m *Manifest) error {
		kept := m.Specs[:0]
		for _, e := range m.Specs {
			path := PathForKey(s.root, e.Spec)
			if path == "" {
				kept = append(kept, e)
				continue
			}
			if _, statErr := os.Stat(path); statErr == nil {
				kept = append(kept, e)
			} else {
				removed = append(removed, e.Spec)
			}
		}
		m.Specs = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// BulkAdd registers every file matching the glob pattern (resolved against
// the project root when relative) that the manifest does not already track.
// Returns the identity keys added.
func (s *Store) BulkAdd(pattern string) ([]string, error) {
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(s.root, pattern)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var added []string
	err = s.WithLock(func(m *Manifest) error {
		for _, path := range matches {
			info, statErr := os.Stat(path)
			if statErr != nil || info.IsDir() {
				continue
			}
			key := KeyForPath(s.root, path)
			if m.Entry(key) == nil {
				m.FindOrCreateEntry(key, "file")
				added = append(added, key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}
