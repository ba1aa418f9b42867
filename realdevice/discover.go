package realdevice

import (
	"fmt"

	"github.com/danielpaulus/go-ios/ios"
)

// Discover lists every physical device currently attached over USB or Wi-Fi
// and wraps each as a *Device, grounded on the teacher's device/dev_common.go
// getLocalDevices (usbmuxd device list) but sourced from go-ios's
// ios.ListDevices instead of shelling out to idevice_id.
func Discover(supervisionID *SupervisionIdentity, devImagesDir string) ([]*Device, error) {
	list, err := ios.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("realdevice: list attached devices: %w", err)
	}

	devices := make([]*Device, 0, len(list.DeviceList))
	for _, entry := range list.DeviceList {
		devices = append(devices, New(entry.Properties.SerialNumber, supervisionID, devImagesDir))
	}
	return devices, nil
}
