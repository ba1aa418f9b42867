package realdevice

import (
	"context"
	"errors"
	"strings"

	"github.com/shamanec/ios-device-control/command"
)

// execIdevice runs an idevice* command and, if it fails because the host
// isn't paired with the device ("Could not connect to lockdownd"),
// auto-pairs via a configured cfgutil supervision identity and retries
// once. Grounded on RealDeviceImpl.java's await() lockdownd auto-pair
// branch; cfgutil commands never route through this (they don't report
// lockdownd errors, and cfgutil.pair() itself must not recurse here).
func (d *Device) execIdevice(cmd command.Command) (*command.Result, error) {
	res, err := command.Execute(context.Background(), cmd)
	if err == nil {
		return res, nil
	}

	var failure *command.FailureError
	if !errors.As(err, &failure) || !strings.Contains(failure.Result.StderrString(), "Could not connect to lockdownd") {
		return res, err
	}
	if !d.cfgutil.isSupervised() {
		return res, err
	}

	pairCmd, pairErr := d.cfgutil.pair()
	if pairErr != nil {
		return res, err
	}
	if _, pairErr := command.Execute(context.Background(), pairCmd); pairErr != nil {
		return res, err
	}
	return command.Execute(context.Background(), cmd)
}
