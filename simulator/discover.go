package simulator

import (
	"context"
	"fmt"

	"github.com/shamanec/ios-device-control/model"
)

// Discover lists every booted simulator and wraps each as a *Device,
// grounded on the teacher's ios_sim/simctl.go device enumeration. Simulators
// that are not booted are left out — a provider has nothing to drive on a
// shutdown simulator until something boots it.
func Discover(ctx context.Context) ([]*Device, error) {
	list, err := listDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("simulator: discover: %w", err)
	}

	var devices []*Device
	for runtimeKey, entries := range list.Devices {
		productVersion := runtimeProductVersion(runtimeKey)
		for _, entry := range entries {
			if entry.State != "Booted" {
				continue
			}
			devices = append(devices, New(entry.UDID, model.Version{ProductVersion: productVersion}, entry.Name))
		}
	}
	return devices, nil
}
