// Package trace records a funstart run as nested spans: the run, its
// pipeline steps (tag, copy, patch, configure, compile, ...) and the
// external commands each step starts.
//
// Enable it from the CLI:
//
//	funstart start --trace=build.ndjson --trace-level=command 32 opt mc
//
// A step-level trace shows where the time of a run went; a command-level
// trace adds hg, patch, autoconf, configure and make invocations. Debug adds
// point events and heartbeats, which name the command a long compile is in.
//
// The tracer and the innermost open span travel in the context; use Start
// to open a child of whatever span the caller is in.
package trace
