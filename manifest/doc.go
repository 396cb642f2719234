// Package manifest is the durable, lock-arbitrated lifecycle registry for
// every spec the orchestrator has ever seen.
//
// The store is a single JSON document at .speckit/manifest.json under the
// project root, guarded by a sibling lock file for cross-process mutual
// exclusion: the orchestrator may be invoked as independent OS processes
// against the same project. The lock file holds an epoch-millisecond
// timestamp; a lock older than 30 seconds is reclaimed automatically, which
// recovers from a crashed prior holder. The lock is advisory - a process
// bypassing the protocol can corrupt state.
//
// All mutation goes through Store.WithLock:
//
//	err := store.WithLock(func(m *manifest.Manifest) error {
//	    e := m.FindOrCreateEntry("specs/auth.md", "file")
//	    e.AppendRun(run)
//	    return nil
//	})
//
// Saves are atomic (temp file + rename), and a missing or unparsable
// manifest loads as empty rather than failing, so the tool survives manual
// tampering.
package manifest
