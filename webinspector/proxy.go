package webinspector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"howett.net/plist"
)

// DeviceDialer opens a fresh connection to a device's own Web Inspector
// service (lockdown's "com.apple.webinspector" service on a real device;
// the fixed simulator service for a simulator). The Proxy opens one per
// client connection, lazily, on that connection's first frame — mirroring
// idevicewebinspectorproxy.c's lazy per-client device-service open.
type DeviceDialer func() (io.ReadWriteCloser, error)

// Proxy is a TCP listener bridging any number of local client connections
// to a device's Web Inspector service. Grounded on SPEC_FULL §4.9 and the
// third_party idevicewebinspectorproxy.c reference tool's connection-pump
// structure; XML/binary detection and re-encoding are delegated to
// socket.go's sniffing helpers so the proxy never needs to care which
// format a given client speaks.
type Proxy struct {
	listener net.Listener
	dial     DeviceDialer
	xmlOut   bool // re-encode device->client frames as XML instead of binary

	wg   sync.WaitGroup
	done chan struct{}
}

// NewProxy starts listening on addr (e.g. "127.0.0.1:0" for an ephemeral
// port) and returns a Proxy ready to Serve. dial is consulted once per
// client connection.
func NewProxy(addr string, dial DeviceDialer, xmlOut bool) (*Proxy, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("webinspector: listen on %s: %w", addr, err)
	}
	return &Proxy{listener: l, dial: dial, xmlOut: xmlOut, done: make(chan struct{})}, nil
}

// Addr returns the proxy's bound address, useful when NewProxy was given
// an ephemeral port.
func (p *Proxy) Addr() net.Addr { return p.listener.Addr() }

// Serve accepts client connections until ctx is cancelled or Close is
// called, spawning one client<->device goroutine pair per connection.
// SIGINT/SIGTERM/SIGQUIT trigger the same shutdown as ctx cancellation;
// SIGPIPE is ignored so a client vanishing mid-write never kills the
// process, matching the reference tool's signal handling.
func (p *Proxy) Serve(ctx context.Context) error {
	signal.Ignore(syscall.SIGPIPE)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	acceptErr := make(chan error, 1)
	go func() {
		for {
			conn, err := p.listener.Accept()
			if err != nil {
				acceptErr <- err
				return
			}
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				p.handleClient(conn)
			}()
		}
	}()

	select {
	case <-ctx.Done():
	case <-sigCh:
	case <-p.done:
	case err := <-acceptErr:
		return err
	}

	closeErr := p.listener.Close()
	p.wg.Wait()
	if closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		return closeErr
	}
	return nil
}

// Close signals Serve to stop and returns at once; it is Serve that waits
// for every in-flight connection pair to finish tearing down.
func (p *Proxy) Close() error {
	close(p.done)
	return nil
}

// handleClient runs one client connection's full lifetime: lazily open
// the device leg on the first client frame, then pump both directions
// concurrently. When either pump stops it closes the connection its
// partner reads from, so the partner stops too.
func (p *Proxy) handleClient(clientConn net.Conn) {
	defer clientConn.Close()
	clientSock := newSocket(clientConn)

	selector, arg, err := clientSock.recvEnvelope()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Printf("webinspector: proxy client->device: %v", err)
		}
		return
	}

	deviceConn, err := p.dial()
	if err != nil {
		log.Printf("webinspector: proxy could not open device connection: %v", err)
		return
	}
	defer deviceConn.Close()
	deviceSock := newSocket(deviceConn)
	if err := deviceSock.sendEnvelopeFormat(selector, argument(arg), plist.BinaryFormat); err != nil {
		log.Printf("webinspector: proxy client->device: forward: %v", err)
		return
	}

	var pump sync.WaitGroup
	pump.Add(2)
	go func() {
		defer pump.Done()
		p.forward(clientSock, deviceSock, "client->device", plist.BinaryFormat)
		deviceConn.Close()
	}()
	go func() {
		defer pump.Done()
		outFormat := plist.BinaryFormat
		if p.xmlOut {
			outFormat = plist.XMLFormat
		}
		p.forward(deviceSock, clientSock, "device->client", outFormat)
		clientConn.Close()
	}()
	pump.Wait()
}

// forward relays frames from src to dst until src is exhausted or errors.
// Every frame is parsed (selector/argument) and re-encoded in outFormat
// rather than byte-copied, since re-encoding is what lets the proxy
// normalise a client's XML frames to the binary format devices expect
// (and, with xmlOut, the reverse for a client that wants XML).
func (p *Proxy) forward(src, dst *socket, direction string, outFormat int) {
	for {
		selector, arg, err := src.recvEnvelope()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("webinspector: proxy %s: %v", direction, err)
			}
			return
		}
		if err := dst.sendEnvelopeFormat(selector, argument(arg), outFormat); err != nil {
			log.Printf("webinspector: proxy %s: forward: %v", direction, err)
			return
		}
	}
}
