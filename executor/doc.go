// Package executor runs a single spec to its terminal state. The state
// machine is: build the prompt for the requested mode, invoke the agent
// with transient-failure retries, verify the result, feed verification
// failures back to the same agent session for a bounded number of rounds,
// inspect reported successes for masked upstream errors, and finally
// persist one result bundle plus one locked manifest append.
package executor
