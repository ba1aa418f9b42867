package devicecontrol

import (
	"context"
	"io"

	"github.com/shamanec/ios-device-control/model"
)

// AppProcess is a future-like handle over a running application process.
// Created by Device.RunApplication, it terminates by the process exiting
// or by an explicit Kill.
type AppProcess interface {
	// Kill sends the OS termination signal without blocking.
	Kill() error
	// Await blocks until the process exits and returns its full captured
	// output (stdout for a real device, stderr for a simulator launched
	// with `simctl launch --console` — see the realdevice/simulator
	// packages for why that asymmetry exists).
	Await(ctx context.Context) (string, error)
	// OutputReader returns a streaming view of the same output Await
	// eventually returns in full, usable concurrently with Await.
	OutputReader() io.Reader
}

// DeviceResource is a scoped acquisition of a device-owned resource (e.g.
// the system log capturer). Release is guaranteed safe to call on every
// exit path; a second Release is a programming error and panics.
type DeviceResource interface {
	Release() error
}

// InspectorSocket is the minimal contract a Device's Web Inspector socket
// satisfies; the richer typed-message API lives on the concrete client
// returned by OpenWebInspectorSocket (see package webinspector).
type InspectorSocket interface {
	Close() error
}

// Device is the contract every real device and simulator implements.
// Every operation fails with a *DeviceError (optionally carrying a Remedy)
// on device-side problems, and panics on API misuse — mirroring the
// source's synchronous-programming-error contract.
type Device interface {
	UDID() string
	IsResponsive() bool
	IsRestarting() bool
	Model() (model.Model, error)
	Version() (model.Version, error)
	ListApplications() ([]model.AppInfo, error)
	IsApplicationInstalled(bundleID model.AppBundleID) (bool, error)
	InstallApplication(pathToAppOrIPA string) error
	UninstallApplication(bundleID model.AppBundleID) error
	RunApplication(bundleID model.AppBundleID, args ...string) (AppProcess, error)
	StartSystemLogger(logPath string) (DeviceResource, error)
	PullCrashLogs(dir string) error
	ClearCrashLogs() error
	Restart() error
	TakeScreenshot() ([]byte, error)
	OpenWebInspectorSocket() (InspectorSocket, error)
}

// RealDevice extends Device with operations only physical hardware
// supports: configuration-profile management, time sync, and battery
// level (which a simulator inherits from the host Mac and cannot report
// meaningfully).
type RealDevice interface {
	Device
	InstallProfile(path string) error
	RemoveProfile(identifier string) error
	ListConfigurationProfiles() ([]string, error)
	SyncToSystemTime() error
	BatteryLevel() (int, error)
}

// Simulator extends Device with lifecycle operations that have no real-
// device analogue: a simulator can be booted, shut down, and wiped back
// to a factory state, none of which apply to hardware.
type Simulator interface {
	Device
	Startup() error
	Shutdown() error
	Erase() error
}
