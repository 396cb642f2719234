package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/speckit/config"
	"github.com/vinayprograms/speckit/depgraph"
	"github.com/vinayprograms/speckit/errors"
	"github.com/vinayprograms/speckit/executor"
	"github.com/vinayprograms/speckit/logging"
	"github.com/vinayprograms/speckit/manifest"
	"github.com/vinayprograms/speckit/pool"
	"github.com/vinayprograms/speckit/resume"
)

// Spec is one candidate handed to the orchestrator.
type Spec struct {
	// Name identifies the spec; derived from the file stem when empty.
	Name string

	// Path is the absolute path to the spec file; empty for ad-hoc text.
	Path string

	// Content is the spec text for ad-hoc specs without a file.
	Content string

	// Source is the provenance tag; defaults to "file" or "adhoc".
	Source string
}

// Options controls candidate selection and scheduling for one batch.
type Options struct {
	// Parallel enables concurrent execution.
	Parallel bool

	// Concurrency bounds simultaneous specs; zero auto-detects from
	// available memory and core count.
	Concurrency int

	// SequentialFirst runs this many specs one at a time before the rest
	// go through the pool. Only meaningful without declared dependencies.
	SequentialFirst int

	// Force reruns specs whose manifest status is already passed.
	Force bool

	// RerunFailed restricts candidates to specs that failed in the most
	// recent batch.
	RerunFailed bool

	// PendingOnly restricts candidates to manifest entries still pending
	// or running whose backing file still exists.
	PendingOnly bool

	// Mode selects normal, plan-only, or dry-run execution.
	Mode executor.Mode

	// VerifyCommands overrides verification auto-detection.
	VerifyCommands []string
}

// Result aggregates one batch.
type Result struct {
	BatchID  string
	Outcomes []executor.Outcome
	Passed   int
	Failed   int
	Skipped  int

	// TotalCostUSD sums agent spend across specs.
	TotalCostUSD float64

	// TotalDuration sums per-spec durations; under parallelism it exceeds
	// WallClock.
	TotalDuration time.Duration

	// WallClock is the independently measured elapsed time.
	WallClock time.Duration

	// Suggestion is the recommended follow-up action.
	Suggestion string
}

// Runner executes one task to its terminal outcome. *executor.Executor is
// the production implementation.
type Runner interface {
	Execute(ctx context.Context, task executor.Task) executor.Outcome
}

// Orchestrator resolves which specs run, in what groups, and feeds every
// outcome back through the manifest.
type Orchestrator struct {
	runner     Runner
	store      *manifest.Store
	cfg        *config.Config
	logger     *logging.Logger
	workingDir string
}

// New creates an orchestrator for the project at workingDir.
func New(runner Runner, store *manifest.Store, cfg *config.Config, workingDir string, logger *logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.New()
	}
	return &Orchestrator{
		runner:     runner,
		store:      store,
		cfg:        cfg,
		logger:     logger.WithComponent("batch"),
		workingDir: workingDir,
	}
}

// candidate is a spec resolved against the manifest and the graph.
type candidate struct {
	spec    Spec
	key     string
	content string
	depends []string
}

// Run executes a batch. An invalid dependency graph aborts the whole batch
// before any spec starts; per-spec failures are isolated in the outcomes.
func (o *Orchestrator) Run(ctx context.Context, specs []Spec, opts Options) (*Result, error) {
	batchID := uuid.NewString()
	result := &Result{BatchID: batchID}
	log := o.logger.WithBatchID(batchID)

	cands, err := o.loadCandidates(specs)
	if err != nil {
		return nil, err
	}

	// The schedule must be valid for the full candidate set before
	// anything is allowed to run.
	if _, err := depgraph.Levels(graphSpecs(cands)); err != nil {
		return nil, err
	}

	selected, skipped := o.selectCandidates(cands, opts)
	for _, c := range skipped {
		log.SpecSkipped(c.key, skipReason(opts))
	}
	result.Skipped = len(skipped)

	if len(selected) == 0 {
		result.Suggestion = resume.FollowUp(0, 0)
		return result, nil
	}

	// Deps on excluded specs are satisfied or out of scope; strip them so
	// the remaining set levels cleanly.
	inSet := make(map[string]bool, len(selected))
	for _, c := range selected {
		inSet[c.spec.Name] = true
	}
	for i := range selected {
		kept := selected[i].depends[:0]
		for _, d := range selected[i].depends {
			if inSet[d] {
				kept = append(kept, d)
			}
		}
		selected[i].depends = kept
	}

	// One locked update marks the whole batch running, so a concurrent
	// observer sees it has started.
	err = o.store.WithLock(func(m *manifest.Manifest) error {
		for _, c := range selected {
			m.FindOrCreateEntry(c.key, c.source()).MarkRunning()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = pool.AutoDetect(o.cfg.MemoryPerWorkerBytes, o.cfg.ConcurrencyCap)
	}
	log.BatchStart(len(selected), opts.Parallel, concurrency)

	start := time.Now()
	if depgraph.HasDependencies(graphSpecs(selected)) && opts.Parallel {
		result.Outcomes = o.runLeveled(ctx, log, batchID, selected, opts, concurrency)
	} else {
		result.Outcomes = o.runFlat(ctx, batchID, selected, opts, concurrency)
	}
	result.WallClock = time.Since(start)

	for _, out := range result.Outcomes {
		result.TotalCostUSD += out.CostUSD
		result.TotalDuration += out.Duration
		if out.Status == manifest.StatusPassed {
			result.Passed++
		} else {
			result.Failed++
		}
	}
	result.Suggestion = resume.FollowUp(result.Passed, result.Failed)

	log.BatchComplete(result.Passed, result.Failed, result.TotalCostUSD, result.WallClock)
	return result, nil
}

// runLeveled executes dependency levels strictly in order. A level is a
// barrier: the next one starts only after every member has returned,
// success or failure alike.
func (o *Orchestrator) runLeveled(ctx context.Context, log *logging.Logger, batchID string, cands []candidate, opts Options, concurrency int) []executor.Outcome {
	levels, err := depgraph.Levels(graphSpecs(cands))
	if err != nil {
		// Unreachable: the set was validated before scheduling.
		log.Error("schedule invalidated mid-batch", map[string]interface{}{"error": err.Error()})
		return nil
	}

	byName := make(map[string]candidate, len(cands))
	for _, c := range cands {
		byName[c.spec.Name] = c
	}

	var outcomes []executor.Outcome
	for i, level := range levels {
		log.LevelStart(i, level.Names())
		levelStart := time.Now()

		if len(level) == 1 {
			task := o.taskFor(byName[level[0].Name], batchID, opts)
			outcomes = append(outcomes, o.runner.Execute(ctx, task))
		} else {
			tasks := make([]executor.Task, len(level))
			for j, member := range level {
				tasks[j] = o.taskFor(byName[member.Name], batchID, opts)
			}
			outcomes = append(outcomes, pool.Run(tasks, concurrency, func(task executor.Task, _ int) executor.Outcome {
				return o.runner.Execute(ctx, task)
			})...)
		}

		log.LevelComplete(i, time.Since(levelStart))
	}
	return outcomes
}

// runFlat executes a dependency-free set: a sequential prefix, then the
// remainder through the pool when parallelism is on.
func (o *Orchestrator) runFlat(ctx context.Context, batchID string, cands []candidate, opts Options, concurrency int) []executor.Outcome {
	seq := opts.SequentialFirst
	if !opts.Parallel {
		seq = len(cands)
	}
	if seq < 0 {
		seq = 0
	}
	if seq > len(cands) {
		seq = len(cands)
	}

	var outcomes []executor.Outcome
	for _, c := range cands[:seq] {
		outcomes = append(outcomes, o.runner.Execute(ctx, o.taskFor(c, batchID, opts)))
	}

	rest := cands[seq:]
	if len(rest) == 0 {
		return outcomes
	}
	tasks := make([]executor.Task, len(rest))
	for i, c := range rest {
		tasks[i] = o.taskFor(c, batchID, opts)
	}
	return append(outcomes, pool.Run(tasks, concurrency, func(task executor.Task, _ int) executor.Outcome {
		return o.runner.Execute(ctx, task)
	})...)
}

// loadCandidates reads spec files, computes identities, and parses
// declared dependencies.
func (o *Orchestrator) loadCandidates(specs []Spec) ([]candidate, error) {
	cands := make([]candidate, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		content := s.Content
		if s.Path != "" {
			data, err := os.ReadFile(s.Path)
			if err != nil {
				return nil, errors.NotFound("spec file "+s.Path, errors.WithCause(err))
			}
			content = string(data)
		} else if content == "" {
			return nil, errors.InvalidInput("spec " + s.Name + " has neither path nor content")
		}

		if s.Name == "" {
			s.Name = nameFromPath(s.Path)
		}
		// Names are the dependency vocabulary; two specs sharing one would
		// make the schedule ambiguous.
		if seen[s.Name] {
			return nil, errors.InvalidInput("duplicate spec name " + s.Name)
		}
		seen[s.Name] = true

		key := manifest.KeyForContent(content)
		if s.Path != "" {
			key = manifest.KeyForPath(o.workingDir, s.Path)
		}

		cands = append(cands, candidate{
			spec:    s,
			key:     key,
			content: content,
			depends: depgraph.ParseDependencies(content),
		})
	}
	return cands, nil
}

// selectCandidates applies the Force / RerunFailed / PendingOnly modifiers
// against the current manifest.
func (o *Orchestrator) selectCandidates(cands []candidate, opts Options) (selected, skipped []candidate) {
	m := o.store.Load()

	var recentBatch string
	if opts.RerunFailed {
		recentBatch = latestBatchID(m)
	}

	for _, c := range cands {
		entry := m.Entry(c.key)

		switch {
		case opts.RerunFailed:
			if entry == nil || entry.Status != manifest.StatusFailed {
				skipped = append(skipped, c)
				continue
			}
			if last := entry.LastRun(); last == nil || last.BatchID != recentBatch {
				skipped = append(skipped, c)
				continue
			}
		case opts.PendingOnly:
			if entry == nil || entry.Status.IsTerminal() {
				skipped = append(skipped, c)
				continue
			}
			if c.spec.Path != "" {
				if _, err := os.Stat(c.spec.Path); err != nil {
					skipped = append(skipped, c)
					continue
				}
			}
		default:
			if entry != nil && entry.Status == manifest.StatusPassed && !opts.Force {
				skipped = append(skipped, c)
				continue
			}
		}
		selected = append(selected, c)
	}
	return selected, skipped
}

// latestBatchID finds the batch id of the newest run in the manifest.
func latestBatchID(m *manifest.Manifest) string {
	var newest time.Time
	var id string
	for _, e := range m.Specs {
		for _, r := range e.Runs {
			if r.BatchID != "" && r.Timestamp.After(newest) {
				newest = r.Timestamp
				id = r.BatchID
			}
		}
	}
	return id
}

func (o *Orchestrator) taskFor(c candidate, batchID string, opts Options) executor.Task {
	return executor.Task{
		Key:            c.key,
		Name:           c.spec.Name,
		Path:           c.spec.Path,
		Content:        c.content,
		Source:         c.source(),
		WorkingDir:     o.workingDir,
		BatchID:        batchID,
		Mode:           opts.Mode,
		VerifyCommands: opts.VerifyCommands,
	}
}

func (c candidate) source() string {
	if c.spec.Source != "" {
		return c.spec.Source
	}
	if c.spec.Path != "" {
		return "file"
	}
	return "adhoc"
}

func graphSpecs(cands []candidate) []depgraph.Spec {
	specs := make([]depgraph.Spec, len(cands))
	for i, c := range cands {
		specs[i] = depgraph.Spec{Name: c.spec.Name, Path: c.spec.Path, Depends: c.depends}
	}
	return specs
}

func skipReason(opts Options) string {
	switch {
	case opts.RerunFailed:
		return "did not fail in the most recent batch"
	case opts.PendingOnly:
		return "not pending, or backing file gone"
	default:
		return "already passed"
	}
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
