package verify

import (
	"context"
	"os/exec"
	"strings"

	"github.com/vinayprograms/speckit/logging"
)

// Result is the outcome of running a project's verification commands.
type Result struct {
	// Passed is true when every command exited zero.
	Passed bool

	// Commands lists what was run, in order, up to and including the
	// first failure.
	Commands []string

	// Errors holds the collected output of the failing command, empty
	// when Passed.
	Errors string
}

// Verifier runs build/type-check/test commands against a working tree.
type Verifier struct {
	logger *logging.Logger

	// runCommand executes one shell command in dir and returns its
	// combined output. Swappable for tests.
	runCommand func(ctx context.Context, dir, command string) (string, error)
}

// New creates a verifier.
func New(logger *logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.New()
	}
	v := &Verifier{logger: logger.WithComponent("verify")}
	v.runCommand = v.shellOut
	return v
}

// Verify runs explicitCommands in order, or the auto-detected commands for
// the project when none are given. It short-circuits at the first failure
// and collects that command's output as the error text. A project with
// nothing to verify passes vacuously.
func (v *Verifier) Verify(ctx context.Context, workingDir string, explicitCommands []string) Result {
	commands := explicitCommands
	if len(commands) == 0 {
		commands = DetectCommands(workingDir)
	}

	res := Result{Passed: true}
	for _, cmd := range commands {
		res.Commands = append(res.Commands, cmd)
		v.logger.Debug("running verification command", map[string]interface{}{
			"dir": workingDir, "command": cmd,
		})

		output, err := v.runCommand(ctx, workingDir, cmd)
		if err != nil {
			res.Passed = false
			res.Errors = formatFailure(cmd, output, err)
			v.logger.Warn("verification command failed", map[string]interface{}{
				"command": cmd, "error": err.Error(),
			})
			return res
		}
	}
	return res
}

func (v *Verifier) shellOut(ctx context.Context, dir, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// formatFailure renders one failing command into the error text handed
// back to the agent for the feedback round.
func formatFailure(command, output string, err error) string {
	var b strings.Builder
	b.WriteString("command failed: ")
	b.WriteString(command)
	b.WriteString("\n")
	b.WriteString(err.Error())
	if trimmed := strings.TrimSpace(output); trimmed != "" {
		b.WriteString("\n")
		b.WriteString(trimmed)
	}
	return b.String()
}
