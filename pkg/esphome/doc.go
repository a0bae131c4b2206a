// Package esphome drives the external esphome CLI.
//
// The tool is treated as an opaque command with four operations:
// run (compile + upload), logs, config (validate) and compile. Its
// exit code is the sole success signal; stdout/stderr are passed
// through to the operator.
//
// Subprocesses are scoped to a context: cancellation sends SIGTERM
// and the process is always awaited, so no orphans survive an
// interrupt.
package esphome
