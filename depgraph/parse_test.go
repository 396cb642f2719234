package depgraph

import (
	"reflect"
	"testing"
)

func TestParseDependenciesInlineList(t *testing.T) {
	content := "---\ndepends: [auth, db]\n---\n\n# Build the API\n"
	got := ParseDependencies(content)
	if !reflect.DeepEqual(got, []string{"auth", "db"}) {
		t.Errorf("ParseDependencies = %v, want [auth db]", got)
	}
}

func TestParseDependenciesBlockList(t *testing.T) {
	content := "---\ndepends:\n  - auth\n  - db\n---\nbody\n"
	got := ParseDependencies(content)
	if !reflect.DeepEqual(got, []string{"auth", "db"}) {
		t.Errorf("ParseDependencies = %v, want [auth db]", got)
	}
}

func TestParseDependenciesAbsent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no metadata block", "# Build the API\nJust a task.\n"},
		{"empty content", ""},
		{"block without depends", "---\ntitle: something\n---\nbody\n"},
		{"unclosed fence", "---\ndepends: [a]\nbody without closing fence\n"},
		{"malformed yaml", "---\ndepends: [unclosed\n---\nbody\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDependencies(tt.content); len(got) != 0 {
				t.Errorf("ParseDependencies = %v, want empty", got)
			}
		})
	}
}

func TestParseDependenciesCRLF(t *testing.T) {
	content := "---\r\ndepends: [auth]\r\n---\r\nbody\r\n"
	got := ParseDependencies(content)
	if !reflect.DeepEqual(got, []string{"auth"}) {
		t.Errorf("ParseDependencies = %v, want [auth]", got)
	}
}

func TestParseDependenciesFenceAtEOF(t *testing.T) {
	content := "---\ndepends: [auth]\n---"
	got := ParseDependencies(content)
	if !reflect.DeepEqual(got, []string{"auth"}) {
		t.Errorf("ParseDependencies = %v, want [auth]", got)
	}
}
