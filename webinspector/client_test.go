package webinspector

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

// newFakePeerPair wraps one end of a net.Pipe as the socket.go transport so tests
// can exercise Client against an in-memory stand-in for the proxy/device,
// without spawning any real process.
func newFakePeerPair(t *testing.T) (*Client, *socket) {
	t.Helper()
	clientConn, peerConn := net.Pipe()
	c := &Client{sock: newSocket(clientConn)}
	return c, newSocket(peerConn)
}

func TestSendMessageBeforeStartListeningPanics(t *testing.T) {
	c, _ := newFakePeerPair(t)
	require.Panics(t, func() {
		_ = c.SendMessage(ReportIdentifierMessage{ConnectionID: "id1"})
	})
}

func TestSendMessageEncodesBinaryPlistEnvelope(t *testing.T) {
	c, peer := newFakePeerPair(t)
	c.StartListening(func(Message) {})
	defer c.Close()

	sendErr := make(chan error, 1)
	go func() { sendErr <- c.SendMessage(ReportIdentifierMessage{ConnectionID: "id1"}) }()

	selector, arg, err := peer.recvEnvelope()
	require.NoError(t, err)
	require.NoError(t, <-sendErr)
	require.Equal(t, SelectorReportIdentifier, selector)
	require.Equal(t, "id1", arg[ConnectionIdentifier.wireString()])
}

func TestStartListeningInvokesHandlerForInboundMessage(t *testing.T) {
	c, peer := newFakePeerPair(t)

	received := make(chan Message, 1)
	c.StartListening(func(m Message) { received <- m })

	go func() {
		_ = peer.sendEnvelope(SelectorReportIdentifier, argument{
			ConnectionIdentifier.wireString(): "id2",
		})
	}()

	select {
	case m := <-received:
		require.Equal(t, ReportIdentifierMessage{ConnectionID: "id2"}, m)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}

	require.NoError(t, c.Close())
}

func TestStartListeningCalledTwicePanics(t *testing.T) {
	c, _ := newFakePeerPair(t)
	c.StartListening(func(Message) {})
	require.Panics(t, func() { c.StartListening(func(Message) {}) })
	require.NoError(t, c.Close())
}

func TestCloseBeforeStartListeningPanics(t *testing.T) {
	c, _ := newFakePeerPair(t)
	require.Panics(t, func() { _ = c.Close() })
}

func TestCloseIsIdempotentlyRejectedAfterFirstClose(t *testing.T) {
	c, _ := newFakePeerPair(t)
	c.StartListening(func(Message) {})
	require.NoError(t, c.Close())
	require.Panics(t, func() { _ = c.Close() })
}

func TestEnvelopeIsBinaryPlistOnTheWire(t *testing.T) {
	clientConn, peerConn := net.Pipe()
	defer clientConn.Close()
	defer peerConn.Close()

	s := newSocket(clientConn)
	go func() {
		_ = s.sendEnvelope(SelectorReportIdentifier, argument{
			ConnectionIdentifier.wireString(): "id1",
		})
	}()

	peerSock := newSocket(peerConn)
	payload, err := peerSock.readFrame()
	require.NoError(t, err)
	require.Equal(t, "binary", detectFormat(payload))

	var dict map[string]interface{}
	_, err = plist.Unmarshal(payload, &dict)
	require.NoError(t, err)
	require.Equal(t, string(SelectorReportIdentifier), dict[selectorKey])
}
