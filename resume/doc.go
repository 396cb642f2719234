// Package resume renders the ready-to-run instructions embedded in failure
// transcripts and batch summaries: a command continuing the agent session
// that stopped, and a follow-up suggestion for the batch as a whole.
package resume
