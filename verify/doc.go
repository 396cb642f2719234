// Package verify confirms delegated work by running the project's own
// build, type-check, and test commands. Commands are either given
// explicitly or detected from project metadata (package.json scripts,
// go.mod, Cargo.toml, Makefile targets). Execution short-circuits at the
// first failure and hands the collected output back for the feedback loop.
package verify
