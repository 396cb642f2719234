// Package resultstore persists one durable bundle per run: a
// machine-readable summary.json next to a human-readable transcript.md,
// under the project's results directory. Bundles are the recovery source
// for manifest reconciliation and are full-text searchable through a bleve
// index kept alongside them.
package resultstore
