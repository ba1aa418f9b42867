package debugserver

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shamanec/ios-device-control/devicecontrol"
)

const (
	// perRecvTimeout bounds each individual packet read during the launch
	// dialogue; launchWallClock bounds the whole dialogue regardless of
	// how many packets it takes. Grounded on SPEC_FULL §4.7.
	perRecvTimeout  = 500 * time.Millisecond
	launchWallClock = 10 * time.Second

	// maxOutputBuffer bounds captured stdout; exceeding it fails the
	// process rather than silently truncating, per SPEC_FULL §4.7's
	// "bounded buffer with overflow-is-fatal" requirement.
	maxOutputBuffer = 4 << 20
)

// ErrOutputOverflow terminates a launched process's read loop once its
// captured stdout exceeds maxOutputBuffer.
var ErrOutputOverflow = fmt.Errorf("debugserver: process output exceeded %d bytes", maxOutputBuffer)

// deadliner is satisfied by net.Conn; recv calls set a per-read deadline
// on it when available so a wedged debugserver cannot hang the dialogue
// forever. A plain io.ReadWriter (e.g. a test's in-memory pipe) simply
// skips the deadline.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Process is a single application launch driven directly over the
// GDB Remote Serial Protocol, the Go-native alternative to shelling out to
// idevice-app-runner (see realdevice/apprunner.go, which still uses the
// external binary as its default path). Grounded on
// blacktop-ipsw/pkg/usb/debugserver's Process and SPEC_FULL §4.7's 8-step
// dialogue.
type Process struct {
	conn      *conn
	rawCloser io.Closer
	deadline  deadliner // nil if the underlying transport has no deadlines

	mu       sync.Mutex
	buf      *outputBuffer
	exitCode int
	crashed  bool
	done     bool
	waitErr  error
	waiters  chan struct{}
}

// Launch performs the full launch dialogue over rw (a connection already
// opened to the device's debugserver service, see Dial) for the given
// remote executable path and arguments, plus an optional environment
// overlay, then starts the background read loop. It returns once
// qLaunchSuccess and the subsequent "c" (continue) have both succeeded, or
// the 10-second wall-clock ceiling has elapsed, whichever comes first.
func Launch(ctx context.Context, rw io.ReadWriteCloser, remotePath string, args []string, env map[string]string) (*Process, error) {
	ctx, cancel := context.WithTimeout(ctx, launchWallClock)
	defer cancel()

	c := newConn(rw)
	p := &Process{
		conn:      c,
		rawCloser: rw,
		buf:       newOutputBuffer(),
		waiters:   make(chan struct{}),
	}
	if dl, ok := rw.(deadliner); ok {
		p.deadline = dl
	}

	dialogueErr := make(chan error, 1)
	go func() { dialogueErr <- p.runLaunchDialogue(remotePath, args, env) }()

	select {
	case err := <-dialogueErr:
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		_ = rw.Close()
		return nil, fmt.Errorf("debugserver: launch dialogue: %w", ctx.Err())
	}

	go p.readLoop()
	return p, nil
}

// runLaunchDialogue speaks the 8-step handshake: QStartNoAckMode, one
// QEnvironmentHexEncoded packet per env var, the hex-encoded 'A' launch
// packet, qLaunchSuccess, Hc-1, then "c" to resume the freshly-launched,
// suspended process.
func (p *Process) runLaunchDialogue(remotePath string, args []string, env map[string]string) error {
	if _, err := p.request("QStartNoAckMode"); err != nil {
		return fmt.Errorf("debugserver: QStartNoAckMode: %w", err)
	}
	p.conn.noAck = true

	for _, kv := range sortedEnvPairs(env) {
		if _, err := p.request("QEnvironmentHexEncoded:" + hexEncode(kv)); err != nil {
			return fmt.Errorf("debugserver: QEnvironmentHexEncoded: %w", err)
		}
	}

	if _, err := p.request(launchPacket(remotePath, args)); err != nil {
		return fmt.Errorf("debugserver: launch packet: %w", err)
	}

	reply, err := p.request("qLaunchSuccess")
	if err != nil {
		return fmt.Errorf("debugserver: qLaunchSuccess: %w", err)
	}
	if reply != "OK" {
		return fmt.Errorf("debugserver: launch failed: %s", reply)
	}

	if _, err := p.request("Hc-1"); err != nil {
		return fmt.Errorf("debugserver: Hc-1: %w", err)
	}

	return p.conn.send("c")
}

// launchPacket builds the 'A' launch packet: length,index,hex-encoded-arg
// triples, comma-separated, with the executable path as argument 0.
func launchPacket(remotePath string, args []string) string {
	all := append([]string{remotePath}, args...)
	parts := make([]string, 0, len(all))
	for i, a := range all {
		encoded := hexEncode(a)
		parts = append(parts, strconv.Itoa(len(encoded)), strconv.Itoa(i), encoded)
	}
	return "A" + strings.Join(parts, ",")
}

// sortedEnvPairs renders env as "K=V" strings in a deterministic order, so
// dialogue tests can assert exact packet sequences.
func sortedEnvPairs(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sortStrings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// request sets the per-recv deadline (if the transport supports one) then
// delegates to conn.request.
func (p *Process) request(payload string) (string, error) {
	p.setDeadline()
	return p.conn.request(payload)
}

func (p *Process) setDeadline() {
	if p.deadline != nil {
		_ = p.deadline.SetReadDeadline(time.Now().Add(perRecvTimeout))
	}
}

// readLoop consumes packets after launch until the process exits (a 'W' or
// 'X' exit-code packet), crashes (a 'T' signal packet), or the connection
// fails. 'O' packets are stdout, hex-decoded and appended to buf.
func (p *Process) readLoop() {
	var finalErr error
	for {
		p.setDeadline()
		pkt, err := p.conn.recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				finalErr = err
			}
			break
		}
		if pkt == "" {
			continue
		}
		switch pkt[0] {
		case 'O':
			data, decodeErr := hex.DecodeString(pkt[1:])
			if decodeErr != nil {
				finalErr = fmt.Errorf("debugserver: decode O packet: %w", decodeErr)
				goto done
			}
			if p.buf.len()+len(data) > maxOutputBuffer {
				finalErr = ErrOutputOverflow
				goto done
			}
			p.buf.append(data)
		case 'W', 'X':
			code, parseErr := parseExitCode(pkt)
			if parseErr != nil {
				finalErr = parseErr
			}
			p.mu.Lock()
			p.exitCode = code
			p.mu.Unlock()
			goto done
		case 'T':
			p.mu.Lock()
			p.crashed = true
			p.mu.Unlock()
			goto done
		default:
			finalErr = fmt.Errorf("debugserver: unrecognised packet type %q", pkt[0])
			goto done
		}
	}
done:
	p.buf.close()
	p.mu.Lock()
	p.done = true
	p.waitErr = finalErr
	close(p.waiters)
	p.mu.Unlock()
}

// parseExitCode extracts the exit code from a 'W' or 'X' packet, e.g.
// "W00" -> 0.
func parseExitCode(pkt string) (int, error) {
	n, err := strconv.ParseInt(pkt[1:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("debugserver: parse exit code from %q: %w", pkt, err)
	}
	return int(n), nil
}

// Kill sends the debugserver 'k' (kill) packet, matching the source's
// synchronous, non-blocking kill contract.
func (p *Process) Kill() error {
	return p.conn.send("k")
}

// Await blocks until the process exits, crashes, or ctx is cancelled, then
// returns its full captured stdout.
func (p *Process) Await(ctx context.Context) (string, error) {
	select {
	case <-p.waiters:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	out := string(p.buf.bytes())
	if p.waitErr != nil {
		return out, p.waitErr
	}
	if p.crashed {
		return out, errors.New("debugserver: process crashed")
	}
	if p.exitCode != 0 {
		return out, fmt.Errorf("debugserver: process exited with code %d", p.exitCode)
	}
	return out, nil
}

// OutputReader returns a streaming view of the process's stdout, usable
// concurrently with Await.
func (p *Process) OutputReader() io.Reader {
	return p.buf.newReader()
}

var _ devicecontrol.AppProcess = (*Process)(nil)
