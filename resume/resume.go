package resume

import (
	"strings"
)

// Instruction carries everything needed to pick up a failed run where the
// agent left off. It renders into failure transcripts so the command is
// ready to paste.
type Instruction struct {
	// SessionID continues the agent conversation with full context.
	SessionID string

	// WorkingDir is the project directory the run operated on.
	WorkingDir string

	// SpecPath locates the task file; empty for ad-hoc content.
	SpecPath string

	// SpecKey is the manifest identity, used when no path exists.
	SpecKey string
}

// Available reports whether there is session continuity to resume.
func (i Instruction) Available() bool {
	return i.SessionID != ""
}

// Command returns the ready-to-run invocation.
func (i Instruction) Command() string {
	var b strings.Builder
	b.WriteString("speckit run --resume-session ")
	b.WriteString(i.SessionID)
	if i.WorkingDir != "" {
		b.WriteString(" --dir ")
		b.WriteString(quoteIfNeeded(i.WorkingDir))
	}
	switch {
	case i.SpecPath != "":
		b.WriteString(" ")
		b.WriteString(quoteIfNeeded(i.SpecPath))
	case i.SpecKey != "":
		b.WriteString(" --spec ")
		b.WriteString(i.SpecKey)
	}
	return b.String()
}

// Render returns the transcript block embedding the resume command, or
// empty when there is no session to continue.
func (i Instruction) Render() string {
	if !i.Available() {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Resume\n\n")
	b.WriteString("The agent session is still available. To continue from where it stopped:\n\n")
	b.WriteString("    ")
	b.WriteString(i.Command())
	b.WriteString("\n")
	return b.String()
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
