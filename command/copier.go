package command

import (
	"io"
)

// copier runs io.Copy(dst, src) on its own goroutine to completion, and can
// either be waited on (for output streams, at Await time) or force-stopped
// (for the stdin stream, so an infinite stdin source never pins the
// process). Grounded on AsyncCopier.java: a dedicated worker, a start
// barrier so the caller knows the goroutine is actually running, and an
// await/stop pair that always closes the underlying streams.
type copier struct {
	done    chan struct{}
	err     error
	closers []io.Closer
}

// startCopier launches the copy and blocks until the goroutine has started,
// mirroring AsyncCopier's constructor, which waits on a "copyStarted" latch
// before returning — so callers can rely on the copier being live as soon
// as startCopier returns.
func startCopier(dst io.Writer, src io.Reader, closers ...io.Closer) *copier {
	c := &copier{done: make(chan struct{}), closers: closers}
	started := make(chan struct{})
	go func() {
		close(started)
		_, err := io.Copy(dst, src)
		c.err = err
		c.closeStreams()
		close(c.done)
	}()
	<-started
	return c
}

func (c *copier) closeStreams() {
	for _, cl := range c.closers {
		if cl != nil {
			_ = cl.Close()
		}
	}
}

// await blocks until the copy has finished (source exhausted or stopped).
func (c *copier) await() error {
	<-c.done
	return c.err
}

// stop force-closes the underlying streams (interrupting a blocked read on
// an unbounded source) and then waits for the goroutine to actually finish,
// matching AsyncCopier.stop()'s cancel-then-await contract.
func (c *copier) stop() error {
	c.closeStreams()
	return c.await()
}
