// Package testutil provides shared test utilities for shelly.
//
// # Fixtures
//
// The fixtures.go file writes toolbox artifacts and config directories:
//
//   - WriteArtifact(t, dir, name, content) - writes a file and returns its path
//   - SetupHome(t) - creates a temp $SHELLY_HOME with a toolbox directory
//
// # Processes
//
// The process.go file provides FakeProcess, a pipe-backed stand-in for the
// listener and relay subprocesses, and FakeLauncher, which hands them out
// and records every launch.
//
// # Assertions
//
// The assertions.go file provides raw HTTP helpers for the ephemeral server:
//
//   - Exchange(t, addr, request) - sends a raw request and returns the reply
//   - AssertOKResponse(t, resp, body) / AssertNotFoundResponse(t, resp)
//
// # Timeouts
//
// The timeout.go file provides contexts bounded by the test deadline and
// Eventually-style waits with shelly's default timings.
package testutil
