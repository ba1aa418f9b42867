package realdevice

import (
	"context"
	"errors"
	"io"

	"github.com/shamanec/ios-device-control/command"
	"github.com/shamanec/ios-device-control/devicecontrol"
)

// appProcess wraps an `idevice-app-runner` command process. Its Await
// reads stdout (the app's own output) — the inverse of the simulator
// driver's appProcess, which must read simctl's stderr instead. Grounded
// on real/RealAppProcess.java.
type appProcess struct {
	device devicecontrol.UDIDer
	proc   *command.Process
}

func (p *appProcess) Kill() error { return p.proc.Kill() }

func (p *appProcess) Await(ctx context.Context) (string, error) {
	res, err := p.proc.Await(ctx)
	if res == nil {
		remedy := devicecontrol.NoRemedy
		var timeout *command.TimeoutError
		if errors.As(err, &timeout) {
			remedy = devicecontrol.DismissDialog
		}
		return "", &devicecontrol.DeviceError{Device: p.device, Msg: "app process failed", Cause: err, Remedy: remedy}
	}

	var failure *command.FailureError
	if errors.As(err, &failure) {
		return "", &devicecontrol.DeviceError{
			Device: p.device,
			Msg:    "app process exited abnormally",
			Cause:  err,
			Remedy: remedyForStderr(res.StderrString()),
		}
	}
	return res.StdoutString(), nil
}

func (p *appProcess) OutputReader() io.Reader { return p.proc.StdoutReader() }

var _ devicecontrol.AppProcess = (*appProcess)(nil)
