package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// StartError means the OS refused to launch the subprocess (exec.Cmd.Start
// failed) — grounded on CommandStartFailure in SPEC_FULL.md §7.
type StartError struct {
	Command Command
	Cause   error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("command %s: failed to start: %v", e.Command.Executable, e.Cause)
}
func (e *StartError) Unwrap() error { return e.Cause }

// FailureError means the subprocess exited but its Result failed the
// configured success predicate.
type FailureError struct {
	Command Command
	Result  *Result
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("command %s failed: %s", e.Command.Executable, e.Result)
}

// TimeoutError is returned by Await when the passed context's deadline
// elapses before the process exits. The process is NOT killed — the caller
// decides, per the documented contract in SPEC_FULL.md §4.1.
type TimeoutError struct {
	Command Command
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %s: timed out waiting for exit", e.Command.Executable)
}

// Process is a running (or exited) subprocess launched from a Command.
type Process struct {
	cmd      Command
	raw      *exec.Cmd
	stdout   *captureBuffer
	stderr   *captureBuffer
	inCop    *copier
	extra    []io.Closer
	once     sync.Once
	result   *Result
	waitErr  error
	waitDone chan struct{} // closed once raw.Wait() returns; safe to select on repeatedly
}

// Start builds the underlying *exec.Cmd, wires up every stream endpoint per
// the Command's configuration, and launches it. A FILE or STREAM stdin is
// driven by an async copier (see copier.go); stdout and stderr are copied
// by exec.Cmd's own goroutines into the two capture buffers, which are
// always written regardless of the configured sink, so a subprocess can
// never stall writing to a full, undrained pipe.
func Start(c Command) (*Process, error) {
	raw := exec.Command(c.Executable, c.Args...)
	if c.Env != nil {
		raw.Env = c.Env
	}
	if c.WorkingDir != "" {
		raw.Dir = c.WorkingDir
	}

	p := &Process{cmd: c, raw: raw, stdout: newCaptureBuffer(), stderr: newCaptureBuffer()}

	stdinSetup, err := p.wireStdin(c.Stdin)
	if err != nil {
		return nil, &StartError{Command: c, Cause: err}
	}
	p.wireOutput(c.Stdout, p.stdout, &raw.Stdout)
	p.wireOutput(c.Stderr, p.stderr, &raw.Stderr)

	if err := raw.Start(); err != nil {
		return nil, &StartError{Command: c, Cause: err}
	}

	if stdinSetup != nil {
		p.inCop = stdinSetup()
	}

	p.waitDone = make(chan struct{})
	go func() {
		p.waitErr = p.raw.Wait()
		close(p.waitDone)
	}()

	return p, nil
}

// wireStdin returns a closure to run AFTER raw.Start() (so any pipe it
// opens is already connected), which in turn returns the stdin copier, or
// nil if stdin needs no background copier (PROCESS/INHERIT).
func (p *Process) wireStdin(src InputSource) (func() *copier, error) {
	switch src.Kind {
	case StreamInherit:
		p.raw.Stdin = os.Stdin
		return nil, nil
	case StreamFile:
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, err
		}
		w, err := p.raw.StdinPipe()
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return func() *copier { return startCopier(w, f, f, w) }, nil
	case StreamBytes:
		w, err := p.raw.StdinPipe()
		if err != nil {
			return nil, err
		}
		return func() *copier { return startCopier(w, src.Reader, w) }, nil
	default: // StreamProcess: stdin stays unset, so the subprocess reads the null device (immediate EOF)
		return nil, nil
	}
}

// wireOutput wires one of stdout/stderr. The capture buffer is always
// appended to; if the sink additionally names a file/writer, output is
// duplicated via io.MultiWriter. Any file opened here is recorded in
// p.extra and closed when Await tears the process down.
func (p *Process) wireOutput(sink OutputSink, capture *captureBuffer, target *io.Writer) {
	switch sink.Kind {
	case StreamInherit:
		*target = io.MultiWriter(capture, os.Stdout)
	case StreamFile, StreamFileAppend:
		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if sink.Kind == StreamFileAppend {
			flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}
		f, err := os.OpenFile(sink.Path, flags, 0o644)
		if err != nil {
			// Best-effort file redirect failure: fall back to capture-only,
			// mirroring the source's tolerant file-redirect handling.
			*target = capture
			return
		}
		*target = io.MultiWriter(capture, f)
		p.extra = append(p.extra, f)
	case StreamBytes:
		*target = io.MultiWriter(capture, sink.Writer)
	default: // StreamProcess
		*target = capture
	}
}

// Await blocks until the process exits, drains the output copiers, stops
// the input copier, and computes the Result exactly once (Invariant iv).
// ctx cancellation does NOT kill the process — only Execute does that.
func (p *Process) Await(ctx context.Context) (*Result, error) {
	select {
	case <-p.waitDone:
	case <-ctx.Done():
		return nil, &TimeoutError{Command: p.cmd}
	}

	if p.inCop != nil {
		_ = p.inCop.stop()
	}
	for _, c := range p.extra {
		_ = c.Close()
	}
	p.stdout.Close()
	p.stderr.Close()

	p.once.Do(func() {
		p.result = &Result{
			ExitCode:    p.raw.ProcessState.ExitCode(),
			StdoutBytes: p.stdout.Bytes(),
			StderrBytes: p.stderr.Bytes(),
		}
	})

	if !p.cmd.Success(p.result) {
		return p.result, &FailureError{Command: p.cmd, Result: p.result}
	}
	return p.result, nil
}

// Kill sends the OS termination signal without blocking.
func (p *Process) Kill() error {
	if p.raw.Process == nil {
		return nil
	}
	return p.raw.Process.Kill()
}

// Execute is Start+Await, except the process is killed if ctx is cancelled
// while Await is blocked — the one contract under which cancellation does
// reach the OS process.
func Execute(ctx context.Context, c Command) (*Result, error) {
	p, err := Start(c)
	if err != nil {
		return nil, err
	}
	resultCh := make(chan struct{})
	var result *Result
	var awaitErr error
	go func() {
		result, awaitErr = p.Await(context.Background())
		close(resultCh)
	}()
	select {
	case <-resultCh:
		return result, awaitErr
	case <-ctx.Done():
		_ = p.Kill()
		<-resultCh
		return result, ctx.Err()
	}
}

// StdoutReader opens an independent, replayable reader view over stdout —
// usable concurrently with Await(), per SPEC_FULL.md §4.1's capture-buffer
// contract.
func (p *Process) StdoutReader() io.Reader { return p.stdout.NewReader() }

// StderrReader opens an independent, replayable reader view over stderr.
func (p *Process) StderrReader() io.Reader { return p.stderr.NewReader() }
