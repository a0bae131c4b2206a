package esphome

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// DefaultBin is the esphome executable looked up on PATH.
const DefaultBin = "esphome"

// waitDelay is how long a cancelled subprocess gets to exit after
// SIGTERM before it is killed.
const waitDelay = 5 * time.Second

// execFunc runs one external command. Replaced in tests.
type execFunc func(ctx context.Context, dir, bin string, args []string, stdout, stderr io.Writer) error

// Runner invokes the external esphome CLI for per-device operations.
// The zero value runs "esphome" from PATH in the current directory
// with output passed through to the process streams.
type Runner struct {
	// Bin is the executable to invoke. Default: DefaultBin.
	Bin string

	// Dir is the working directory, typically the config directory.
	// Empty means the current directory.
	Dir string

	// Stdout and Stderr receive subprocess output.
	// Defaults: os.Stdout, os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	execFn execFunc
}

// Run compiles and uploads a config to the device at addr
// (esphome run <cfg> --device <addr>).
func (r *Runner) Run(ctx context.Context, cfg, addr string) error {
	if err := r.exec(ctx, r.stdout(), r.stderr(), "run", cfg, "--device", addr); err != nil {
		return fmt.Errorf("run %s on %s failed: %w", cfg, addr, err)
	}
	return nil
}

// Logs streams device logs until ctx is cancelled
// (esphome logs <cfg> --device <addr>).
func (r *Runner) Logs(ctx context.Context, cfg, addr string) error {
	if err := r.exec(ctx, r.stdout(), r.stderr(), "logs", cfg, "--device", addr); err != nil {
		return fmt.Errorf("logs %s on %s failed: %w", cfg, addr, err)
	}
	return nil
}

// Validate checks a config file (esphome config <cfg>).
func (r *Runner) Validate(ctx context.Context, cfg string) error {
	if err := r.exec(ctx, r.stdout(), r.stderr(), "config", cfg); err != nil {
		return fmt.Errorf("validate %s failed: %w", cfg, err)
	}
	return nil
}

// Compile builds a config without uploading (esphome compile <cfg>).
func (r *Runner) Compile(ctx context.Context, cfg string) error {
	if err := r.exec(ctx, r.stdout(), r.stderr(), "compile", cfg); err != nil {
		return fmt.Errorf("compile %s failed: %w", cfg, err)
	}
	return nil
}

func (r *Runner) exec(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	bin := r.Bin
	if bin == "" {
		bin = DefaultBin
	}
	fn := r.execFn
	if fn == nil {
		fn = execCommand
	}
	return fn(ctx, r.Dir, bin, args, stdout, stderr)
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

// execCommand runs the command with SIGTERM-on-cancel semantics. The
// process is always awaited.
func execCommand(ctx context.Context, dir, bin string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = waitDelay
	return cmd.Run()
}
