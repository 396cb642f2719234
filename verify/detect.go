package verify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// packageJSON is the subset of package.json needed for detection.
type packageJSON struct {
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// DetectCommands inspects project metadata in dir and returns the
// verification commands to run, type check first, then build, then tests.
// An empty slice means there is nothing detectable to verify.
func DetectCommands(dir string) []string {
	if cmds := detectNode(dir); cmds != nil {
		return cmds
	}
	if fileExists(filepath.Join(dir, "go.mod")) {
		return []string{"go build ./...", "go vet ./...", "go test ./..."}
	}
	if fileExists(filepath.Join(dir, "Cargo.toml")) {
		return []string{"cargo build", "cargo test"}
	}
	if cmds := detectMake(dir); cmds != nil {
		return cmds
	}
	return nil
}

func detectNode(dir string) []string {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}

	var cmds []string

	if _, ok := pkg.Scripts["typecheck"]; ok {
		cmds = append(cmds, "npm run typecheck")
	} else if hasDep(pkg, "typescript") {
		cmds = append(cmds, "npx tsc --noEmit")
	}

	if _, ok := pkg.Scripts["build"]; ok {
		cmds = append(cmds, "npm run build")
	}

	// npm init seeds a placeholder test script; running it would fail
	// every project that never wrote tests.
	if test, ok := pkg.Scripts["test"]; ok && !strings.Contains(test, "no test specified") {
		cmds = append(cmds, "npm test")
	}

	return cmds
}

func hasDep(pkg packageJSON, name string) bool {
	if _, ok := pkg.Dependencies[name]; ok {
		return true
	}
	_, ok := pkg.DevDependencies[name]
	return ok
}

func detectMake(dir string) []string {
	data, err := os.ReadFile(filepath.Join(dir, "Makefile"))
	if err != nil {
		return nil
	}

	var cmds []string
	for _, target := range []string{"build", "test"} {
		if hasMakeTarget(string(data), target) {
			cmds = append(cmds, "make "+target)
		}
	}
	return cmds
}

func hasMakeTarget(makefile, target string) bool {
	for _, line := range strings.Split(makefile, "\n") {
		if strings.HasPrefix(line, target+":") {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
