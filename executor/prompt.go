package executor

import (
	"regexp"
	"strconv"
	"strings"
)

// Mode selects how a spec is framed for the agent. The three modes are
// mutually exclusive.
type Mode int

const (
	// ModeNormal asks for implementation framed by outcome and
	// acceptance criteria.
	ModeNormal Mode = iota

	// ModePlanOnly asks for a task breakdown without implementation.
	ModePlanOnly

	// ModeDryRun asks for a breakdown plus a parseable task count, used
	// to estimate cost without doing the work.
	ModeDryRun
)

func (m Mode) String() string {
	switch m {
	case ModePlanOnly:
		return "plan"
	case ModeDryRun:
		return "dry-run"
	default:
		return "normal"
	}
}

// taskCountMarker is the line the dry-run prompt asks the agent to end with.
const taskCountMarker = "TASK COUNT:"

// BuildPrompt renders the spec content into the framing for its mode.
func BuildPrompt(name, content string, mode Mode) string {
	var b strings.Builder

	switch mode {
	case ModePlanOnly:
		b.WriteString("Produce a numbered task breakdown for the work described below. ")
		b.WriteString("Do not implement anything; planning only.\n\n")
	case ModeDryRun:
		b.WriteString("Produce a numbered task breakdown for the work described below. ")
		b.WriteString("Do not implement anything. ")
		b.WriteString("End your reply with a final line of the form \"")
		b.WriteString(taskCountMarker)
		b.WriteString(" <number>\" giving the total number of tasks.\n\n")
	default:
		b.WriteString("Complete the following task. The description states the desired ")
		b.WriteString("outcome and its acceptance criteria; the task is done only when ")
		b.WriteString("every criterion holds. Report what you changed when finished.\n\n")
	}

	if name != "" {
		b.WriteString("# ")
		b.WriteString(name)
		b.WriteString("\n\n")
	}
	b.WriteString(content)
	return b.String()
}

// BuildFeedbackPrompt embeds the verifier's raw error text into the
// follow-up sent to the same session.
func BuildFeedbackPrompt(verifierErrors string) string {
	var b strings.Builder
	b.WriteString("Verification failed after your changes. Fix the problems below, ")
	b.WriteString("then confirm the project builds and its tests pass.\n\n")
	b.WriteString("```\n")
	b.WriteString(strings.TrimSpace(verifierErrors))
	b.WriteString("\n```\n")
	return b.String()
}

var (
	taskCountLine = regexp.MustCompile(`(?mi)^\s*TASK COUNT:\s*(\d+)\s*$`)
	numberedItem  = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+\S`)
)

// ParseTaskCount extracts the task count from a dry-run reply. It prefers
// the explicit marker line; without one it counts numbered list items. A
// reply with neither counts as a single task.
func ParseTaskCount(output string) int {
	if m := taskCountLine.FindStringSubmatch(output); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	if items := numberedItem.FindAllString(output, -1); len(items) > 0 {
		return len(items)
	}
	return 1
}
