// Package pool provides the bounded-parallelism runner the orchestrator
// schedules specs through. Workers are logical, not OS threads: throughput
// comes from overlapping outstanding network-bound agent calls, so the
// auto-detected concurrency is bounded by memory headroom and a small cap
// rather than core count alone.
package pool
