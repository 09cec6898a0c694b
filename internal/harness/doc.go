// Package harness executes autosave conformance scenarios.
//
// A scenario is a YAML file describing an editing session as a timeline:
// edits, clock advances, explicit flushes, suspension, and scripted save
// failures. The harness runs the timeline against a real engine wired to a
// deterministic fake clock, an instrumented save function, and a temporary
// backup database, then evaluates assertions on the observed behavior.
//
// Each step also appends to a trace (step kind, resulting status, save
// count), which golden tests compare against checked-in fixtures. The
// golden files are the source of truth for the engine's observable
// behavior over time.
package harness
