package webinspector

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// clientState is Client's lifecycle: Created -> Started -> Closed.
// SendMessage is legal only once Started; StartListening only transitions
// out of Created; Close only transitions out of Started. Grounded on
// SPEC_FULL §4.12's Web Inspector client state machine and
// InspectorSocket.java/WebInspector.java's connect-then-listen contract.
type clientState int

const (
	clientCreated clientState = iota
	clientStarted
	clientClosed
)

const receivePollInterval = 50 * time.Millisecond

// Handler receives every Message the peer sends after StartListening.
type Handler func(Message)

// Client is a single Web Inspector connection: either to a real device
// (via a spawned idevicewebinspectorproxy) or to a simulator's built-in
// service. It implements devicecontrol.InspectorSocket via Close.
type Client struct {
	sock         *socket
	connectionID string

	mu       sync.Mutex
	state    clientState
	handler  Handler
	stopPoll chan struct{}
	pollDone chan struct{}
	failure  error
}

// DialRealDevice opens a Client to a real device with the given udid.
func DialRealDevice(udid string) (*Client, error) {
	conn, err := dialRealDevice(udid)
	if err != nil {
		return nil, err
	}
	return &Client{sock: newSocket(conn), connectionID: uuid.NewString()}, nil
}

// DialSimulator opens a Client to the simulator's built-in inspector
// service.
func DialSimulator() (*Client, error) {
	conn, err := dialSimulator()
	if err != nil {
		return nil, err
	}
	return &Client{sock: newSocket(conn), connectionID: uuid.NewString()}, nil
}

// ConnectionID is this Client's identifier in every message it sends,
// generated once at Dial time — matching WebInspector.java's per-session
// UUID rather than a value the caller has to invent.
func (c *Client) ConnectionID() string { return c.connectionID }

// ReportIdentifier sends the initial handshake message every Web Inspector
// session opens with, identifying this Client to the peer.
func (c *Client) ReportIdentifier() error {
	return c.SendMessage(ReportIdentifierMessage{ConnectionID: c.connectionID})
}

// SendMessage encodes and writes message as one frame. It panics if the
// client has not been started or has already been closed — sending on a
// connection with no reader pumping is a programming error, matching the
// source's synchronous-misuse-panics contract used throughout this module.
func (c *Client) SendMessage(message Message) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	switch state {
	case clientCreated:
		panic("webinspector: SendMessage called before StartListening")
	case clientClosed:
		panic("webinspector: SendMessage called on a closed Client")
	}
	return c.sock.sendEnvelope(message.Selector(), message.toArgument())
}

// StartListening begins a background pump that polls for inbound messages
// every 50ms and invokes handler for each one it decodes, matching
// WebInspector.java's listener-thread contract. It may be called exactly
// once, from the Created state; calling it twice panics.
func (c *Client) StartListening(handler Handler) {
	c.mu.Lock()
	if c.state != clientCreated {
		c.mu.Unlock()
		panic("webinspector: StartListening called more than once")
	}
	c.state = clientStarted
	c.handler = handler
	c.stopPoll = make(chan struct{})
	c.pollDone = make(chan struct{})
	c.mu.Unlock()

	go c.pollLoop()
}

func (c *Client) pollLoop() {
	defer close(c.pollDone)
	ticker := time.NewTicker(receivePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopPoll:
			return
		case <-ticker.C:
			message, err := c.receiveMessage()
			if err != nil {
				c.mu.Lock()
				closing := c.state == clientClosed
				if c.failure == nil && !closing {
					c.failure = err
				}
				c.mu.Unlock()
				if errors.Is(err, io.EOF) && !closing {
					log.Printf("webinspector: connection closed unexpectedly")
				}
				return
			}
			if message != nil {
				c.handler(message)
			}
		}
	}
}

// receiveMessage reads and decodes exactly one frame, if one is ready;
// real reads are blocking so this only returns on a genuine frame, EOF, or
// a transport error — there is no select-style "nothing pending" case
// because the underlying connection has no non-blocking peek.
func (c *Client) receiveMessage() (Message, error) {
	selector, arg, err := c.sock.recvEnvelope()
	if err != nil {
		return nil, err
	}
	message, err := DecodeMessage(selector, arg)
	if err != nil {
		return nil, fmt.Errorf("webinspector: decode inbound message: %w", err)
	}
	return message, nil
}

// Close stops the listener and closes the underlying socket. It returns
// any failure observed by the listener before returning the socket's own
// close error, so a caller sees the root cause of an unexpected
// disconnect rather than just "use of closed network connection". Close
// is legal only from the Started state; calling it before StartListening
// or twice panics, matching SPEC_FULL §4.12's state machine.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state != clientStarted {
		c.mu.Unlock()
		panic("webinspector: Close called outside the Started state")
	}
	c.state = clientClosed
	stopPoll, pollDone := c.stopPoll, c.pollDone
	c.mu.Unlock()

	close(stopPoll)
	// Closing the socket now unblocks a poll iteration that is already
	// blocked inside a read, so pollDone is guaranteed to close promptly.
	closeErr := c.sock.close()
	<-pollDone

	c.mu.Lock()
	failure := c.failure
	c.mu.Unlock()
	if failure != nil && !errors.Is(failure, io.EOF) {
		return failure
	}
	return closeErr
}
