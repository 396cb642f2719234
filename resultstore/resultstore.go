package resultstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vinayprograms/speckit/errors"
	"github.com/vinayprograms/speckit/logging"
	"github.com/vinayprograms/speckit/manifest"
)

// ResultsDirName is the bundle directory under the state directory.
const ResultsDirName = "results"

// Summary is the machine-readable half of a result bundle.
type Summary struct {
	SpecKey         string          `json:"specKey"`
	SpecName        string          `json:"specName,omitempty"`
	Source          string          `json:"source"`
	RunID           string          `json:"runId"`
	BatchID         string          `json:"batchId,omitempty"`
	SessionID       string          `json:"sessionId,omitempty"`
	Status          manifest.Status `json:"status"`
	CostUSD         float64         `json:"costUsd"`
	DurationSeconds float64         `json:"durationSeconds"`
	Timestamp       time.Time       `json:"timestamp"`
	Error           string          `json:"error,omitempty"`
}

// Store persists result bundles under <root>/.speckit/results/ and keeps a
// full-text index over their transcripts.
type Store struct {
	root   string
	dir    string
	index  *TranscriptIndex
	logger *logging.Logger
}

// New creates a store rooted at the project directory. The transcript
// index is opened or created under the results directory. An empty
// resultsDir means <root>/.speckit/results; a relative one resolves
// against root.
func New(root, resultsDir string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.New()
	}
	dir := resultsDir
	switch {
	case dir == "":
		dir = filepath.Join(root, manifest.DirName, ResultsDirName)
	case !filepath.IsAbs(dir):
		dir = filepath.Join(root, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Internal("creating results directory", errors.WithCause(err))
	}

	index, err := openTranscriptIndex(dir)
	if err != nil {
		return nil, err
	}

	return &Store{
		root:   root,
		dir:    dir,
		index:  index,
		logger: logger.WithComponent("results"),
	}, nil
}

// Close releases the transcript index.
func (s *Store) Close() error {
	return s.index.Close()
}

// Dir returns the results directory.
func (s *Store) Dir() string {
	return s.dir
}

// Persist writes one bundle: summary.json plus transcript.md in a
// directory named after the run's timestamp and id. The transcript is also
// indexed for search. Returns the bundle directory.
func (s *Store) Persist(summary Summary, transcript string) (string, error) {
	if summary.RunID == "" {
		return "", errors.InvalidInput("summary has no run id")
	}
	if summary.Timestamp.IsZero() {
		summary.Timestamp = time.Now().UTC()
	}

	bundle := filepath.Join(s.dir, bundleName(summary))
	if err := os.MkdirAll(bundle, 0o755); err != nil {
		return "", errors.Internal("creating bundle directory", errors.WithCause(err))
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", errors.Internal("encoding summary", errors.WithCause(err))
	}
	if err := os.WriteFile(filepath.Join(bundle, "summary.json"), append(data, '\n'), 0o644); err != nil {
		return "", errors.Internal("writing summary", errors.WithCause(err))
	}
	if err := os.WriteFile(filepath.Join(bundle, "transcript.md"), []byte(transcript), 0o644); err != nil {
		return "", errors.Internal("writing transcript", errors.WithCause(err))
	}

	if err := s.index.Add(summary, transcript); err != nil {
		// The bundle on disk is the source of truth; a missed index entry
		// is recovered by Reindex.
		s.logger.Warn("transcript not indexed", map[string]interface{}{
			"runId": summary.RunID, "error": err.Error(),
		})
	}

	s.logger.Debug("bundle persisted", map[string]interface{}{
		"spec": summary.SpecKey, "runId": summary.RunID, "dir": bundle,
	})
	return bundle, nil
}

// ListRuns reads every bundle's summary and converts it to the record
// shape the manifest reconciler consumes, oldest first.
func (s *Store) ListRuns() ([]manifest.RecordedRun, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Internal("reading results directory", errors.WithCause(err))
	}

	var runs []manifest.RecordedRun
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == indexDirName {
			continue
		}
		summary, err := s.readSummary(entry.Name())
		if err != nil {
			s.logger.Warn("skipping unreadable bundle", map[string]interface{}{
				"bundle": entry.Name(), "error": err.Error(),
			})
			continue
		}

		resultPath, _ := filepath.Rel(s.root, filepath.Join(s.dir, entry.Name()))
		runs = append(runs, manifest.RecordedRun{
			SpecKey: summary.SpecKey,
			Source:  summary.Source,
			Run: manifest.Run{
				RunID:           summary.RunID,
				BatchID:         summary.BatchID,
				Timestamp:       summary.Timestamp,
				ResultPath:      filepath.ToSlash(resultPath),
				Status:          summary.Status,
				CostUSD:         summary.CostUSD,
				DurationSeconds: summary.DurationSeconds,
			},
		})
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Run.Timestamp.Before(runs[j].Run.Timestamp)
	})
	return runs, nil
}

// Search queries the transcript index.
func (s *Store) Search(query string, limit int) ([]SearchHit, error) {
	return s.index.Search(query, limit)
}

// Reindex rebuilds the transcript index from the bundles on disk.
func (s *Store) Reindex() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, errors.Internal("reading results directory", errors.WithCause(err))
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == indexDirName {
			continue
		}
		summary, err := s.readSummary(entry.Name())
		if err != nil {
			continue
		}
		transcript, err := os.ReadFile(filepath.Join(s.dir, entry.Name(), "transcript.md"))
		if err != nil {
			continue
		}
		if err := s.index.Add(summary, string(transcript)); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *Store) readSummary(bundleName string) (Summary, error) {
	var summary Summary
	data, err := os.ReadFile(filepath.Join(s.dir, bundleName, "summary.json"))
	if err != nil {
		return summary, err
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// bundleName builds a sortable directory name from timestamp and run id.
func bundleName(summary Summary) string {
	runID := summary.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return summary.Timestamp.UTC().Format("20060102-150405") + "-" + runID
}
