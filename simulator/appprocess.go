package simulator

import (
	"context"
	"io"

	"github.com/shamanec/ios-device-control/command"
	"github.com/shamanec/ios-device-control/devicecontrol"
)

// appProcess wraps `simctl launch --console`, whose hosted app's stdout is
// re-emitted on the *simctl process's own stderr* — confirmed against
// SimulatorAppProcess.java, which treats process.stdoutStringUtf8() as this
// type's "output". The asymmetry with the real-device driver (which reads
// stdout, see realdevice.appProcess) is intentional and documented here
// rather than inherited silently from a shared base type.
type appProcess struct {
	device devicecontrol.UDIDer
	proc   *command.Process
}

func (p *appProcess) Kill() error { return p.proc.Kill() }

func (p *appProcess) Await(ctx context.Context) (string, error) {
	res, err := p.proc.Await(ctx)
	// A *command.FailureError still carries the Result (a nonzero exit is
	// how a killed/crashed launched app is reported); only a nil Result
	// (timeout, start failure) is an unrecoverable device error.
	if res == nil {
		return "", &devicecontrol.DeviceError{Device: p.device, Msg: "simulator app process failed", Cause: err}
	}
	return res.StderrString(), nil
}

func (p *appProcess) OutputReader() io.Reader { return p.proc.StderrReader() }

var _ devicecontrol.AppProcess = (*appProcess)(nil)
