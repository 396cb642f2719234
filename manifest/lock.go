package manifest

import (
	"os"
	"strconv"
	"time"

	"github.com/vinayprograms/speckit/errors"
)

// Lock tuning. The lock is advisory: every process mutating the manifest
// must go through it, and a process bypassing the protocol can corrupt
// state.
const (
	// lockStaleAfter is the age past which a lock file is assumed to
	// belong to a crashed holder and is reclaimed.
	lockStaleAfter = 30 * time.Second

	// lockBackoffBase is the first backoff sleep on contention; it doubles
	// per attempt up to lockBackoffCap.
	lockBackoffBase = 50 * time.Millisecond
	lockBackoffCap  = 2 * time.Second

	// lockMaxAttempts bounds acquisition. Worst case comfortably exceeds
	// the staleness window, so a crashed holder is always reclaimed before
	// acquisition gives up.
	lockMaxAttempts = 60
)

// acquireLock atomically creates the lock file with the current
// epoch-millisecond timestamp as its content. On conflict it reclaims stale
// locks immediately and otherwise sleeps with exponential backoff before
// retrying. After lockMaxAttempts it fails loudly.
func (s *Store) acquireLock() error {
	backoff := lockBackoffBase
	dirCreated := false

	for attempt := 1; attempt <= lockMaxAttempts; attempt++ {
		f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			stamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
			_, werr := f.WriteString(stamp)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(s.lockPath)
				return errors.Internal("writing manifest lock", errors.WithCause(errors.Join(werr, cerr)))
			}
			return nil
		}
		if !os.IsExist(err) {
			// Commonly the parent directory does not exist yet. If creating
			// it did not help, the error is something retrying cannot heal
			// (permissions, read-only filesystem); surface it as-is.
			if dirCreated {
				return errors.Internal("opening manifest lock", errors.WithCause(err))
			}
			if mkErr := os.MkdirAll(s.dir, 0o755); mkErr != nil {
				return errors.Internal("creating manifest directory", errors.WithCause(mkErr))
			}
			dirCreated = true
			continue
		}

		// Lock held: check whether the holder looks crashed.
		data, rerr := os.ReadFile(s.lockPath)
		if rerr == nil {
			if ms, perr := strconv.ParseInt(string(data), 10, 64); perr == nil {
				age := time.Since(time.UnixMilli(ms))
				if age > lockStaleAfter {
					os.Remove(s.lockPath)
					s.logger.LockReclaimed(age)
					continue // retry immediately
				}
			} else {
				// Unreadable content counts as stale; better to reclaim
				// than to wait forever on garbage.
				os.Remove(s.lockPath)
				continue
			}
		} else if os.IsNotExist(rerr) {
			continue // released between create and read
		}

		s.logger.LockWait(attempt, backoff)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > lockBackoffCap {
			backoff = lockBackoffCap
		}
	}

	return errors.LockTimeout("manifest lock not acquired after " + strconv.Itoa(lockMaxAttempts) + " attempts")
}

// releaseLock removes the lock file. Best effort: a failure here is
// recovered by the staleness window.
func (s *Store) releaseLock() {
	os.Remove(s.lockPath)
}
