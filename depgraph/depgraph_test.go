package depgraph

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vinayprograms/speckit/errors"
)

func specsFrom(deps map[string][]string) []Spec {
	specs := make([]Spec, 0, len(deps))
	for name, d := range deps {
		specs = append(specs, Spec{Name: name, Depends: d})
	}
	return specs
}

func levelNames(levels []Level) [][]string {
	out := make([][]string, len(levels))
	for i, l := range levels {
		out[i] = l.Names()
	}
	return out
}

func TestHasDependencies(t *testing.T) {
	if HasDependencies(specsFrom(map[string][]string{"a": nil, "b": nil})) {
		t.Error("no spec declares deps, want false")
	}
	if !HasDependencies(specsFrom(map[string][]string{"a": nil, "b": {"a"}})) {
		t.Error("b declares a dep, want true")
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	specs := specsFrom(map[string][]string{
		"a": {"ghost"},
		"b": {"phantom", "a"},
	})

	err := Validate(specs)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, errors.ErrCodeUnresolvedDep) {
		t.Errorf("code = %v, want UNRESOLVED_DEPENDENCY", errors.Code(err))
	}
	// Both violations reported in one pass, not just the first.
	msg := err.Error()
	if !strings.Contains(msg, "ghost") || !strings.Contains(msg, "phantom") {
		t.Errorf("error should name every unresolved dep, got: %s", msg)
	}
}

func TestDetectCycleReportsExactPath(t *testing.T) {
	specs := specsFrom(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	})

	err := DetectCycle(specs)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !errors.Is(err, errors.ErrCodeDependencyCycle) {
		t.Errorf("code = %v, want DEPENDENCY_CYCLE", errors.Code(err))
	}
	cycle := errors.GetMetadata(err)["cycle"]
	if cycle != "a -> b -> c -> a" {
		t.Errorf("cycle = %q, want a -> b -> c -> a", cycle)
	}
}

func TestDetectCycleSelfDependency(t *testing.T) {
	specs := []Spec{{Name: "solo", Depends: []string{"solo"}}}

	err := DetectCycle(specs)
	if err == nil {
		t.Fatal("a spec depending on itself is a one-node cycle")
	}
	if got := errors.GetMetadata(err)["cycle"]; got != "solo -> solo" {
		t.Errorf("cycle = %q, want solo -> solo", got)
	}
}

func TestDetectCycleAcyclic(t *testing.T) {
	specs := specsFrom(map[string][]string{
		"a": nil,
		"b": {"a"},
		"c": {"a", "b"},
	})
	if err := DetectCycle(specs); err != nil {
		t.Errorf("acyclic graph reported a cycle: %v", err)
	}
}

func TestLevelsDiamond(t *testing.T) {
	specs := specsFrom(map[string][]string{
		"base":  nil,
		"left":  {"base"},
		"right": {"base"},
		"top":   {"left", "right"},
	})

	levels, err := Levels(specs)
	if err != nil {
		t.Fatalf("Levels failed: %v", err)
	}

	want := [][]string{{"base"}, {"left", "right"}, {"top"}}
	if !reflect.DeepEqual(levelNames(levels), want) {
		t.Errorf("levels = %v, want %v", levelNames(levels), want)
	}
}

func TestLevelsAlphabeticalWithinLevel(t *testing.T) {
	specs := []Spec{
		{Name: "zeta"},
		{Name: "alpha"},
		{Name: "mid"},
	}

	levels, err := Levels(specs)
	if err != nil {
		t.Fatalf("Levels failed: %v", err)
	}
	want := [][]string{{"alpha", "mid", "zeta"}}
	if !reflect.DeepEqual(levelNames(levels), want) {
		t.Errorf("levels = %v, want %v", levelNames(levels), want)
	}
}

func TestLevelsDeterministic(t *testing.T) {
	specs := specsFrom(map[string][]string{
		"a": nil,
		"b": nil,
		"c": {"a", "b"},
		"d": {"c"},
		"e": {"a"},
	})

	first, err := Levels(specs)
	if err != nil {
		t.Fatalf("Levels failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Levels(specs)
		if err != nil {
			t.Fatalf("Levels failed on repeat: %v", err)
		}
		if !reflect.DeepEqual(levelNames(first), levelNames(again)) {
			t.Fatalf("schedule not deterministic: %v vs %v", levelNames(first), levelNames(again))
		}
	}
}

func TestLevelsCoverEverySpecOnceAndRespectOrder(t *testing.T) {
	specs := specsFrom(map[string][]string{
		"a": nil,
		"b": {"a"},
		"c": {"a"},
		"d": {"b", "c"},
		"e": nil,
		"f": {"e", "d"},
	})

	levels, err := Levels(specs)
	if err != nil {
		t.Fatalf("Levels failed: %v", err)
	}

	levelOf := make(map[string]int)
	total := 0
	for i, level := range levels {
		for _, s := range level {
			if _, seen := levelOf[s.Name]; seen {
				t.Fatalf("spec %s placed twice", s.Name)
			}
			levelOf[s.Name] = i
			total++
		}
	}
	if total != len(specs) {
		t.Fatalf("levels cover %d specs, want %d", total, len(specs))
	}
	for _, s := range specs {
		for _, dep := range s.Depends {
			if levelOf[s.Name] <= levelOf[dep] {
				t.Errorf("%s (level %d) must come after %s (level %d)",
					s.Name, levelOf[s.Name], dep, levelOf[dep])
			}
		}
	}
}

func TestLevelsRejectsInvalidGraphCompletely(t *testing.T) {
	// Unresolved dependency: no partial levels.
	if levels, err := Levels(specsFrom(map[string][]string{"a": {"ghost"}})); err == nil || levels != nil {
		t.Errorf("unresolved dep must yield (nil, err), got (%v, %v)", levels, err)
	}

	// Cycle: no partial levels.
	if levels, err := Levels(specsFrom(map[string][]string{"a": {"b"}, "b": {"a"}})); err == nil || levels != nil {
		t.Errorf("cycle must yield (nil, err), got (%v, %v)", levels, err)
	}
}

func TestLevelsEmpty(t *testing.T) {
	levels, err := Levels(nil)
	if err != nil {
		t.Fatalf("Levels(nil) failed: %v", err)
	}
	if levels != nil {
		t.Errorf("Levels(nil) = %v, want nil", levels)
	}
}
