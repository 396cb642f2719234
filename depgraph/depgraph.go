package depgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vinayprograms/speckit/errors"
)

// Spec is a graph node: one spec file and its declared dependencies.
type Spec struct {
	// Name identifies the spec within the batch (file stem by convention).
	Name string

	// Path is the absolute path to the backing file; empty for ad-hoc specs.
	Path string

	// Depends lists the names of specs this one declares as dependencies.
	Depends []string
}

// Level is an ordered set of specs that may run concurrently because every
// dependency of every member lives in a strictly earlier level.
type Level []Spec

// Names returns the member names in level order.
func (l Level) Names() []string {
	names := make([]string, len(l))
	for i, s := range l {
		names[i] = s.Name
	}
	return names
}

// HasDependencies reports whether any spec declares at least one dependency.
// It gates whether a batch uses level-based scheduling.
func HasDependencies(specs []Spec) bool {
	for _, s := range specs {
		if len(s.Depends) > 0 {
			return true
		}
	}
	return false
}

// Validate checks that every declared dependency names a spec in the batch.
// All violations are collected before failing, so one pass reports every
// misspelled or missing dependency at once.
func Validate(specs []Spec) error {
	known := make(map[string]bool, len(specs))
	for _, s := range specs {
		known[s.Name] = true
	}

	var violations []string
	for _, s := range specs {
		for _, dep := range s.Depends {
			if !known[dep] {
				violations = append(violations, fmt.Sprintf("%s depends on unknown spec %q", s.Name, dep))
			}
		}
	}

	if len(violations) > 0 {
		return errors.UnresolvedDependency(strings.Join(violations, "; "))
	}
	return nil
}

// DetectCycle searches the graph depth-first with an explicit recursion
// stack. On revisiting a node already on the stack it returns an error whose
// message and metadata carry the exact cycle path, ordered and ending back at
// the repeated node.
func DetectCycle(specs []Spec) error {
	byName := make(map[string]Spec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}

	const (
		white = iota // unvisited
		gray         // on the current stack
		black        // fully explored
	)
	color := make(map[string]int, len(specs))

	var stack []string
	var visit func(name string) []string

	visit = func(name string) []string {
		color[name] = gray
		stack = append(stack, name)

		for _, dep := range byName[name].Depends {
			if _, ok := byName[dep]; !ok {
				continue // unresolved deps are Validate's problem
			}
			switch color[dep] {
			case gray:
				// Found a back edge; slice the stack from the repeated node.
				start := 0
				for i, n := range stack {
					if n == dep {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, stack[start:]...), dep)
				return cycle
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}

	// Deterministic traversal order so the reported cycle is stable.
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}
	sort.Strings(names)

	for _, name := range names {
		if color[name] == white {
			if cycle := visit(name); cycle != nil {
				return errors.DependencyCycle(cycle)
			}
		}
	}
	return nil
}

// Levels computes the execution schedule by Kahn-style leveling. Level 0
// holds specs with zero dependencies; each subsequent level holds specs whose
// every dependency is already placed. Members of a level are sorted by name
// so repeated calls over the same graph produce identical schedules.
//
// Validate and DetectCycle run first; an invalid graph never produces
// partial levels.
func Levels(specs []Spec) ([]Level, error) {
	if err := Validate(specs); err != nil {
		return nil, err
	}
	if err := DetectCycle(specs); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, nil
	}

	placed := make(map[string]bool, len(specs))
	remaining := append([]Spec{}, specs...)

	var levels []Level
	for len(remaining) > 0 {
		var level Level
		var next []Spec

		for _, s := range remaining {
			ready := true
			for _, dep := range s.Depends {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, s)
			} else {
				next = append(next, s)
			}
		}

		// Validate + DetectCycle guarantee progress every round.
		sort.Slice(level, func(i, j int) bool { return level[i].Name < level[j].Name })
		for _, s := range level {
			placed[s.Name] = true
		}

		levels = append(levels, level)
		remaining = next
	}

	return levels, nil
}
