package esphome

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// StreamLogs runs one logs subprocess per address concurrently and
// interleaves their output on the runner's stdout, prefixing every
// line with "[addr] ". All subprocesses are torn down together when
// ctx is cancelled. Returns the joined errors of streams that failed
// for reasons other than cancellation.
func (r *Runner) StreamLogs(ctx context.Context, cfg string, addrs []string) error {
	var mu sync.Mutex
	var wg sync.WaitGroup
	errs := make([]error, len(addrs))

	for i, addr := range addrs {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			out := &lineWriter{mu: &mu, w: r.stdout(), prefix: "[" + addr + "] "}
			defer out.Flush()
			errs[i] = r.exec(ctx, out, out, "logs", cfg, "--device", addr)
		}(i, addr)
	}
	wg.Wait()

	if ctx.Err() != nil {
		// Interrupted together; not a failure.
		return nil
	}

	var failed []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, fmt.Errorf("logs from %s: %w", addrs[i], err))
		}
	}
	return errors.Join(failed...)
}

// lineWriter buffers a byte stream and emits whole lines with a
// prefix, serialized through a shared mutex so concurrent streams
// never interleave mid-line.
type lineWriter struct {
	mu     *sync.Mutex
	w      io.Writer
	prefix string
	buf    []byte
}

func (lw *lineWriter) Write(p []byte) (int, error) {
	lw.buf = append(lw.buf, p...)
	for {
		i := bytes.IndexByte(lw.buf, '\n')
		if i < 0 {
			break
		}
		line := lw.buf[:i]
		lw.mu.Lock()
		_, err := fmt.Fprintf(lw.w, "%s%s\n", lw.prefix, line)
		lw.mu.Unlock()
		lw.buf = lw.buf[i+1:]
		if err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

// Flush emits any trailing partial line.
func (lw *lineWriter) Flush() {
	if len(lw.buf) == 0 {
		return
	}
	lw.mu.Lock()
	fmt.Fprintf(lw.w, "%s%s\n", lw.prefix, lw.buf)
	lw.mu.Unlock()
	lw.buf = nil
}
