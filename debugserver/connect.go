package debugserver

import (
	"fmt"
	"io"

	"github.com/danielpaulus/go-ios/ios"
)

// debugserverService is the lockdown service name for the GDB Remote
// Serial Protocol endpoint used to launch and observe applications.
const debugserverService = "com.apple.debugserver.DVTSecureSocketProxy"

// Dial opens a raw connection to udid's debugserver service via lockdown,
// suitable for passing to Launch. It requires the device to have a
// developer disk image mounted (see package devimage) and, on iOS 17+,
// the RSD/tunnel variant this function does not yet negotiate — see
// SPEC_FULL §4.7's note on the SSL/RSD-tunnelled service variants.
func Dial(udid string) (io.ReadWriteCloser, error) {
	device, err := ios.GetDevice(udid)
	if err != nil {
		return nil, fmt.Errorf("debugserver: find device %q: %w", udid, err)
	}

	svc, err := ios.ConnectToService(device, debugserverService)
	if err != nil {
		return nil, fmt.Errorf("debugserver: start %s: %w", debugserverService, err)
	}
	return &serviceConn{svc}, nil
}

// serviceConn adapts ios.DeviceConnectionInterface to io.ReadWriteCloser.
type serviceConn struct {
	ios.DeviceConnectionInterface
}

func (c *serviceConn) Read(p []byte) (int, error)  { return c.Reader().Read(p) }
func (c *serviceConn) Write(p []byte) (int, error) { return c.Writer().Write(p) }
