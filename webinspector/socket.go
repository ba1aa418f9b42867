package webinspector

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"howett.net/plist"

	"github.com/shamanec/ios-device-control/command"
)

const (
	selectorKey = "__selector"
	argumentKey = "__argument"
)

// socket is the framed-plist transport every Web Inspector connection (a
// proxy's device-facing leg, a proxy's client-facing leg, or Client's
// direct connection) is built on: each frame is a 4-byte big-endian length
// followed by that many bytes of a property list, binary by default but
// optionally XML, with envelope {"__selector": ..., "__argument": ...}.
// Grounded on BinaryPlistSocket.java's sendMessage/receiveMessage.
type socket struct {
	conn io.ReadWriteCloser
}

func newSocket(conn io.ReadWriteCloser) *socket {
	return &socket{conn: conn}
}

// sendEnvelope writes one frame: selector + argument encoded as a binary
// plist dictionary.
func (s *socket) sendEnvelope(selector Selector, arg argument) error {
	return s.sendEnvelopeFormat(selector, arg, plist.BinaryFormat)
}

func (s *socket) sendEnvelopeFormat(selector Selector, arg argument, format int) error {
	dict := map[string]interface{}{
		selectorKey: string(selector),
		argumentKey: map[string]interface{}(arg),
	}
	payload, err := plist.Marshal(dict, format)
	if err != nil {
		return fmt.Errorf("webinspector: encode envelope: %w", err)
	}
	return s.writeFrame(payload)
}

func (s *socket) writeFrame(payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := s.conn.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("webinspector: write frame length: %w", err)
	}
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("webinspector: write frame payload: %w", err)
	}
	return nil
}

// recvEnvelope reads one frame and decodes its selector/argument envelope.
// io.EOF is returned unwrapped so callers can distinguish a clean peer
// close from a real transport error.
func (s *socket) recvEnvelope() (Selector, map[string]interface{}, error) {
	payload, err := s.readFrame()
	if err != nil {
		return "", nil, err
	}

	var dict map[string]interface{}
	format := detectFormat(payload)
	if _, err := plist.Unmarshal(payload, &dict); err != nil {
		return "", nil, fmt.Errorf("webinspector: decode %s envelope: %w", format, err)
	}

	selector, _ := dict[selectorKey].(string)
	arg, _ := dict[argumentKey].(map[string]interface{})
	return Selector(selector), arg, nil
}

func (s *socket) readFrame() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(s.conn, lenBuf[:]); err != nil {
		return nil, err
	}
	payload := make([]byte, binary.BigEndian.Uint32(lenBuf[:]))
	if _, err := io.ReadFull(s.conn, payload); err != nil {
		return nil, fmt.Errorf("webinspector: read frame payload: %w", err)
	}
	return payload, nil
}

func (s *socket) close() error { return s.conn.Close() }

// detectFormat distinguishes an XML plist ("<?xml" prefix) from a binary
// one ("bplist00" magic), the same sniff the proxy uses to decide how to
// re-encode a frame it passes through. Unrecognised payloads are reported
// as binary, howett.net/plist's default.
func detectFormat(payload []byte) string {
	switch {
	case bytes.HasPrefix(payload, []byte("<?xml")):
		return "xml"
	case bytes.HasPrefix(payload, []byte("bplist00")):
		return "binary"
	default:
		return "binary"
	}
}

// dialRealDevice opens a Web Inspector connection to a real device: it
// spawns `idevicewebinspectorproxy -u <udid> <port>` bound to an ephemeral
// local port, then connects to that port, retrying up to 15 times 1 second
// apart since the proxy process needs a moment to start listening.
// Grounded on BinaryPlistSocket.openToRealDevice. The returned closer's
// Close also kills the spawned proxy process.
func dialRealDevice(udid string) (io.ReadWriteCloser, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("webinspector: reserve local port: %w", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return nil, fmt.Errorf("webinspector: release reserved port: %w", err)
	}

	cmd := command.New("idevicewebinspectorproxy", "-u", udid, fmt.Sprintf("%d", port))
	proc, err := command.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("webinspector: start idevicewebinspectorproxy: %w", err)
	}

	var conn net.Conn
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	for attempt := 0; attempt < 15; attempt++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		_ = proc.Kill()
		return nil, fmt.Errorf("webinspector: connect to proxy after 15 attempts: %w", err)
	}

	return &proxiedConn{Conn: conn, proxy: proc}, nil
}

// dialSimulator opens a Web Inspector connection directly to the
// simulator's own service, which always listens on the IPv6 loopback
// address at a fixed port. Grounded on BinaryPlistSocket.openToSimulator.
func dialSimulator() (io.ReadWriteCloser, error) {
	conn, err := net.Dial("tcp", "[::1]:27753")
	if err != nil {
		return nil, fmt.Errorf("webinspector: dial simulator inspector service: %w", err)
	}
	return conn, nil
}

// proxiedConn augments a net.Conn so closing it also tears down the
// idevicewebinspectorproxy process that backs it.
type proxiedConn struct {
	net.Conn
	proxy *command.Process
}

func (c *proxiedConn) Close() error {
	killErr := c.proxy.Kill()
	connErr := c.Conn.Close()
	if connErr != nil {
		return connErr
	}
	return killErr
}
