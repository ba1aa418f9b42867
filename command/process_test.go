package command

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAwaitCapturesStdoutAndStderr(t *testing.T) {
	c := New("sh", "-c", "echo out; echo err 1>&2")
	p, err := Start(c)
	require.NoError(t, err)

	res, err := p.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "out\n", res.StdoutString())
	require.Equal(t, "err\n", res.StderrString())
}

func TestAwaitIsIdempotent(t *testing.T) {
	c := New("sh", "-c", "echo hi")
	p, err := Start(c)
	require.NoError(t, err)

	r1, err1 := p.Await(context.Background())
	r2, err2 := p.Await(context.Background())
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.Same(t, r1, r2)
}

func TestEmptyStdinYieldsImmediateEOF(t *testing.T) {
	c := New("cat")
	p, err := Start(c)
	require.NoError(t, err)

	res, err := p.Await(context.Background())
	require.NoError(t, err)
	require.Empty(t, res.StdoutBytes)
}

func TestStdinFromBytesIsForwarded(t *testing.T) {
	c := New("cat").WithStdinFromBytes(strings.NewReader("hello world"))
	p, err := Start(c)
	require.NoError(t, err)

	res, err := p.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "hello world", res.StdoutString())
}

func TestFailurePredicateCarriesResult(t *testing.T) {
	c := New("sh", "-c", "exit 7")
	p, err := Start(c)
	require.NoError(t, err)

	_, err = p.Await(context.Background())
	require.Error(t, err)
	var fe *FailureError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, 7, fe.Result.ExitCode)
}

func TestSuccessExitCodesTolerated(t *testing.T) {
	c := New("sh", "-c", "exit 163").WithSuccessExitCodes(0, 163)
	p, err := Start(c)
	require.NoError(t, err)

	res, err := p.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 163, res.ExitCode)
}

func TestReaderViewReplaysFullOutputConcurrentlyWithAwait(t *testing.T) {
	c := New("sh", "-c", "for i in 1 2 3; do echo line$i; done")
	p, err := Start(c)
	require.NoError(t, err)

	reader := p.StdoutReader()
	var buf bytes.Buffer

	done := make(chan struct{})
	go func() {
		var b [4096]byte
		for {
			n, err := reader.Read(b[:])
			buf.Write(b[:n])
			if err != nil {
				break
			}
		}
		close(done)
	}()

	res, err := p.Await(context.Background())
	require.NoError(t, err)
	<-done
	require.Equal(t, res.StdoutBytes, buf.Bytes())
}

func TestAwaitContextTimeoutDoesNotKillProcess(t *testing.T) {
	c := New("sh", "-c", "sleep 0.3; echo done")
	p, err := Start(c)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Await(ctx)
	require.Error(t, err)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)

	// The process was not killed: awaiting again (without a deadline) still
	// observes it exit normally.
	res, err := p.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
}

func TestExecuteKillsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Execute(ctx, New("sh", "-c", "sleep 5"))
	require.Error(t, err)
}
