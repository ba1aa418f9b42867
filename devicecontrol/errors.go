// Package devicecontrol defines the device contract shared by the real-
// device and simulator drivers, the device-error taxonomy, and the
// process-wide device host registry. Grounded on
// IosDevice.java/IosDeviceException.java/IosDeviceHost.java (referenced)
// and the teacher's device-map/singleton pattern in device/dev_common.go.
package devicecontrol

import "fmt"

// Remedy is a recovery hint attached to a DeviceError, consumed by a retry
// harness's exception handler to decide how to recover before retrying.
type Remedy int

const (
	// NoRemedy means the error carries no automatic recovery hint.
	NoRemedy Remedy = iota
	// DismissDialog means a blocking on-screen dialog should be dismissed.
	DismissDialog
	// ReinstallApp means the app bundle should be uninstalled and reinstalled.
	ReinstallApp
	// RestartDevice means the device should be restarted before retrying.
	RestartDevice
)

func (r Remedy) String() string {
	switch r {
	case DismissDialog:
		return "DISMISS_DIALOG"
	case ReinstallApp:
		return "REINSTALL_APP"
	case RestartDevice:
		return "RESTART_DEVICE"
	default:
		return "NONE"
	}
}

// DeviceError is the error type for every device-operation failure: it
// carries the offending device, a human-readable message, the underlying
// cause (if any), and an optional Remedy consumed by a retry harness.
type DeviceError struct {
	Device UDIDer
	Msg    string
	Cause  error
	Remedy Remedy
}

func (e *DeviceError) Error() string {
	udid := "<unknown>"
	if e.Device != nil {
		udid = e.Device.UDID()
	}
	if e.Cause != nil {
		return fmt.Sprintf("device %s: %s: %v", udid, e.Msg, e.Cause)
	}
	return fmt.Sprintf("device %s: %s", udid, e.Msg)
}

func (e *DeviceError) Unwrap() error { return e.Cause }

// UDIDer is the minimal identity a DeviceError needs from a device, kept
// separate from the full Device interface so errors.go has no dependency
// on device.go's richer contract.
type UDIDer interface {
	UDID() string
}

// CancellationError wraps a context cancellation observed while waiting on
// a device operation.
type CancellationError struct {
	Cause error
}

func (e *CancellationError) Error() string { return fmt.Sprintf("device operation cancelled: %v", e.Cause) }
func (e *CancellationError) Unwrap() error  { return e.Cause }
