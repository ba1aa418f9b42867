package devicecontrol

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/shamanec/ios-device-control/model"
	"github.com/stretchr/testify/require"
)

// fakeDevice is a minimal Device stub for exercising the host registry;
// the real implementations live in the realdevice/simulator packages.
type fakeDevice struct{ udid string }

func (d *fakeDevice) UDID() string         { return d.udid }
func (d *fakeDevice) IsResponsive() bool   { return true }
func (d *fakeDevice) IsRestarting() bool   { return false }
func (d *fakeDevice) Model() (model.Model, error)     { return model.Model{}, nil }
func (d *fakeDevice) Version() (model.Version, error) { return model.Version{}, nil }
func (d *fakeDevice) ListApplications() ([]model.AppInfo, error) { return nil, nil }
func (d *fakeDevice) IsApplicationInstalled(model.AppBundleID) (bool, error) { return false, nil }
func (d *fakeDevice) InstallApplication(string) error   { return nil }
func (d *fakeDevice) UninstallApplication(model.AppBundleID) error { return nil }
func (d *fakeDevice) RunApplication(model.AppBundleID, ...string) (AppProcess, error) {
	return nil, nil
}
func (d *fakeDevice) StartSystemLogger(string) (DeviceResource, error) { return nil, nil }
func (d *fakeDevice) PullCrashLogs(string) error                      { return nil }
func (d *fakeDevice) ClearCrashLogs() error                           { return nil }
func (d *fakeDevice) Restart() error                                  { return nil }
func (d *fakeDevice) TakeScreenshot() ([]byte, error)                 { return nil, nil }
func (d *fakeDevice) OpenWebInspectorSocket() (InspectorSocket, error) { return nil, nil }

var _ Device = (*fakeDevice)(nil)
var _ AppProcess = (*fakeAppProcess)(nil)

type fakeAppProcess struct{}

func (fakeAppProcess) Kill() error                             { return nil }
func (fakeAppProcess) Await(context.Context) (string, error)   { return "", nil }
func (fakeAppProcess) OutputReader() io.Reader                 { return strings.NewReader("") }

// resetHostForTest clears the package-level singleton state between test
// cases; InitRealDeviceHost's one-call-per-process guard would otherwise
// make every test after the first panic.
func resetHostForTest() {
	initMu.Lock()
	defer initMu.Unlock()
	initialized = false
	singleton = nil
	singletonOnce = sync.Once{}
}

func TestInitRealDeviceHostPanicsOnSecondCall(t *testing.T) {
	resetHostForTest()
	require.NotPanics(t, func() {
		InitRealDeviceHost(nil)
	})
	require.Panics(t, func() {
		InitRealDeviceHost(nil)
	})
}

func TestHostInstancePanicsBeforeInit(t *testing.T) {
	resetHostForTest()
	require.Panics(t, func() {
		HostInstance()
	})
}

func TestConnectedDeviceReturnsSameInstanceAsSnapshot(t *testing.T) {
	resetHostForTest()
	h := InitRealDeviceHost(nil)
	h.Register(&fakeDevice{udid: "AAA"})
	h.Register(&fakeDevice{udid: "BBB"})

	snapshot := h.ConnectedDevices()
	require.Len(t, snapshot, 2)

	one, err := h.ConnectedDevice("AAA")
	require.NoError(t, err)

	var fromSnapshot Device
	for _, d := range snapshot {
		if d.UDID() == "AAA" {
			fromSnapshot = d
		}
	}
	require.Same(t, fromSnapshot, one)
}

func TestConnectedDeviceErrorsWhenNotFound(t *testing.T) {
	resetHostForTest()
	h := InitRealDeviceHost(nil)
	_, err := h.ConnectedDevice("missing")
	require.Error(t, err)
}

func TestUnregisterRemovesDevice(t *testing.T) {
	resetHostForTest()
	h := InitRealDeviceHost(nil)
	h.Register(&fakeDevice{udid: "AAA"})
	h.Unregister("AAA")
	_, err := h.ConnectedDevice("AAA")
	require.Error(t, err)
}
