package simulator

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shamanec/ios-device-control/cache"
	"github.com/shamanec/ios-device-control/command"
	"github.com/shamanec/ios-device-control/devicecontrol"
	"github.com/shamanec/ios-device-control/model"
	"github.com/shamanec/ios-device-control/webinspector"
)

// Device drives one iOS Simulator instance through `xcrun simctl`.
// Grounded on SimulatorDeviceImpl.java, with its command construction
// adapted from the teacher's ios_sim/simctl.go idiom of a package-level
// XcrunExecGeneric helper.
type Device struct {
	udid    string
	version model.Version

	deviceType string
	modelMemo  *cache.Memo[model.Model]

	systemLoggerStarted atomic.Bool
}

// New constructs a Device for an already-enumerated simulator UDID,
// version, and CoreSimulator device-type string.
func New(udid string, version model.Version, deviceType string) *Device {
	d := &Device{udid: udid, version: version, deviceType: deviceType}
	d.modelMemo = cache.New(d.resolveModel)
	return d
}

func (d *Device) UDID() string { return d.udid }

// IsResponsive reports whether simctl currently lists this simulator as
// Booted.
func (d *Device) IsResponsive() bool {
	list, err := listDevices(context.Background())
	if err != nil {
		return false
	}
	for _, devices := range list.Devices {
		for _, dev := range devices {
			if dev.UDID == d.udid && dev.State == "Booted" {
				return true
			}
		}
	}
	return false
}

func (d *Device) IsRestarting() bool { return false }

func (d *Device) Model() (model.Model, error) { return d.modelMemo.Get() }

var generationPattern = regexp.MustCompile(`\((\d+)\w{2} generation\)`)
var deviceTypeDirNormalizer = regexp.MustCompile(`\W`)

// resolveModel reads profile.plist under the CoreSimulator device-type
// directory matching d.deviceType (after normalising non-word characters
// to hyphens, exactly as the source's directory-name matching does), and
// derives architecture from the profile's supportedArchs list.
func (d *Device) resolveModel() (model.Model, error) {
	base := "/Applications/Xcode.app/Contents/Developer/Platforms/iPhoneSimulator.platform/Developer/Library/CoreSimulator/Profiles/DeviceTypes"
	entries, err := os.ReadDir(base)
	if err != nil {
		return model.Model{}, fmt.Errorf("simulator: list device types: %w", err)
	}

	var matchDir string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if deviceTypeDirNormalizer.ReplaceAllString(name, "-") == d.deviceType {
			matchDir = e.Name()
			break
		}
	}
	if matchDir == "" {
		return model.Model{}, fmt.Errorf("simulator: no device type directory matches %q", d.deviceType)
	}

	productName := generationPattern.ReplaceAllString(strings.TrimSuffix(matchDir, filepath.Ext(matchDir)), "$1")

	profilePath := filepath.Join(base, matchDir, "Contents/Resources/profile.plist")
	identifier, archs, err := readDeviceTypeProfile(profilePath)
	if err != nil {
		return model.Model{}, err
	}

	arch := "i386"
	for _, a := range archs {
		if a == "x86_64" {
			arch = "x86_64"
			break
		}
	}

	return model.Model{Architecture: arch, Identifier: identifier, ProductName: productName}, nil
}

func (d *Device) Version() (model.Version, error) { return d.version, nil }

// ListApplications combines the runtime's preinstalled system apps with
// this simulator's user-installed apps.
func (d *Device) ListApplications() ([]model.AppInfo, error) {
	sys, err := listSystemApps(d.version.ProductVersion)
	if err != nil {
		return nil, err
	}
	usr, err := d.userApps()
	if err != nil {
		return nil, err
	}
	return append(sys, usr...), nil
}

func (d *Device) userApps() ([]model.AppInfo, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	appsDir := filepath.Join(home, "Library/Developer/CoreSimulator/Devices", d.udid, "data/Containers/Bundle/Application")
	entries, err := os.ReadDir(appsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("simulator: list user apps: %w", err)
	}

	var out []model.AppInfo
	for _, e := range entries {
		containerDir := filepath.Join(appsDir, e.Name())
		bundles, err := os.ReadDir(containerDir)
		if err != nil {
			continue
		}
		for _, b := range bundles {
			if strings.HasSuffix(b.Name(), ".app") {
				info, err := model.ReadAppInfo(filepath.Join(containerDir, b.Name()))
				if err == nil {
					out = append(out, info)
				}
			}
		}
	}
	return out, nil
}

func (d *Device) IsApplicationInstalled(bundleID model.AppBundleID) (bool, error) {
	apps, err := d.ListApplications()
	if err != nil {
		return false, err
	}
	for _, a := range apps {
		if a.BundleID == bundleID {
			return true, nil
		}
	}
	return false, nil
}

// InstallApplication accepts either an .app directory (passed straight to
// `simctl install`) or an .ipa archive (unzipped into a temp directory,
// with Payload/<name>.app then installed).
func (d *Device) InstallApplication(pathToAppOrIPA string) error {
	if !strings.EqualFold(filepath.Ext(pathToAppOrIPA), ".ipa") {
		_, err := simctlExec(context.Background(), "install", d.udid, pathToAppOrIPA)
		return d.wrapErr(err, "install application")
	}

	tmpDir, err := os.MkdirTemp("", "ios-device-control-app-")
	if err != nil {
		return d.wrapErr(err, "create temp dir for ipa")
	}
	defer os.RemoveAll(tmpDir)

	if err := unzipTo(pathToAppOrIPA, tmpDir); err != nil {
		return d.wrapErr(err, "unzip ipa")
	}

	payloadDir := filepath.Join(tmpDir, "Payload")
	entries, err := os.ReadDir(payloadDir)
	if err != nil {
		return d.wrapErr(err, "read Payload directory")
	}
	var appDir string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".app") {
			appDir = filepath.Join(payloadDir, e.Name())
			break
		}
	}
	if appDir == "" {
		return d.wrapErr(fmt.Errorf("no .app found in Payload/"), "install application")
	}

	_, err = simctlExec(context.Background(), "install", d.udid, appDir)
	return d.wrapErr(err, "install application")
}

func unzipTo(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		src, err := f.Open()
		if err != nil {
			return err
		}
		dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			src.Close()
			return err
		}
		_, copyErr := io.Copy(dst, src)
		src.Close()
		dst.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}

func (d *Device) UninstallApplication(bundleID model.AppBundleID) error {
	_, err := simctlExec(context.Background(), "uninstall", d.udid, bundleID.String())
	return d.wrapErr(err, "uninstall application")
}

func (d *Device) RunApplication(bundleID model.AppBundleID, args ...string) (devicecontrol.AppProcess, error) {
	launchArgs := append([]string{"launch", "--console", d.udid, bundleID.String()}, args...)
	proc, err := command.Start(command.New("xcrun", append([]string{"simctl"}, launchArgs...)...).WithEnvironment())
	if err != nil {
		return nil, d.wrapErr(err, "run application")
	}
	return &appProcess{device: d, proc: proc}, nil
}

func (d *Device) StartSystemLogger(logPath string) (devicecontrol.DeviceResource, error) {
	if !d.systemLoggerStarted.CompareAndSwap(false, true) {
		panic("simulator: system logger has already been started")
	}
	proc, err := command.Start(command.New("xcrun", "simctl", "spawn", d.udid, "log", "stream", "--level=debug", "--system").WithStdoutToFile(logPath, false))
	if err != nil {
		d.systemLoggerStarted.Store(false)
		return nil, d.wrapErr(err, "start system logger")
	}
	return &systemLoggerResource{device: d, proc: proc}, nil
}

type systemLoggerResource struct {
	device   *Device
	proc     *command.Process
	released atomic.Bool
}

func (r *systemLoggerResource) Release() error {
	if !r.released.CompareAndSwap(false, true) {
		panic("simulator: system logger has already been stopped")
	}
	if !r.device.systemLoggerStarted.CompareAndSwap(true, false) {
		panic("simulator: system logger has already been stopped")
	}
	_ = r.proc.Kill()
	_, err := r.proc.Await(context.Background())
	return err
}

// PullCrashLogs and ClearCrashLogs are unsupported for simulators in the
// source (UnsupportedOperationException) — the Go analogue panics, since
// this is API misuse (a caller asking a simulator to do a real-device-only
// operation) rather than a device-side failure.
func (d *Device) PullCrashLogs(dir string) error {
	panic("simulator: PullCrashLogs is not supported")
}

func (d *Device) ClearCrashLogs() error {
	panic("simulator: ClearCrashLogs is not supported")
}

func (d *Device) Restart() error {
	if err := d.Shutdown(); err != nil {
		return err
	}
	return d.Startup()
}

func (d *Device) TakeScreenshot() ([]byte, error) {
	f, err := os.CreateTemp("", "ios-device-control-screenshot-*.png")
	if err != nil {
		return nil, d.wrapErr(err, "create screenshot temp file")
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if _, err := simctlExec(context.Background(), "io", d.udid, "screenshot", "--type=png", path); err != nil {
		return nil, d.wrapErr(err, "take screenshot")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, d.wrapErr(err, "read screenshot")
	}
	return data, nil
}

// OpenWebInspectorSocket connects to the simulator's Web Inspector bridge,
// which simulatord exposes directly on the IPv6 loopback rather than
// through a spawned proxy process (see SPEC_FULL §4.10 and
// BinaryPlistSocket.java's openToSimulator).
func (d *Device) OpenWebInspectorSocket() (devicecontrol.InspectorSocket, error) {
	client, err := webinspector.DialSimulator()
	if err != nil {
		return nil, d.wrapErr(err, "open web inspector socket")
	}
	return client, nil
}

// Shutdown tolerates simctl's documented exit code 163 (already shut down)
// as a no-op.
func (d *Device) Shutdown() error {
	_, err := simctlExecTolerating163(context.Background(), "shutdown", d.udid)
	return d.wrapErr(err, "shutdown")
}

// Startup tolerates exit code 163 (already booted), then polls until the
// device is both responsive and screenshottable (its `io enumerate` output
// reports "IOSurface port"), at 100 ms intervals — a brief window exists
// after boot during which the simulator has no IO capability yet.
func (d *Device) Startup() error {
	if _, err := simctlExecTolerating163(context.Background(), "boot", d.udid); err != nil {
		return d.wrapErr(err, "startup")
	}
	for !d.IsResponsive() || !d.isScreenshottable() {
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

func (d *Device) isScreenshottable() bool {
	res, err := simctlExec(context.Background(), "io", d.udid, "enumerate")
	if err != nil {
		return false
	}
	return strings.Contains(res.StdoutString(), "IOSurface port")
}

func (d *Device) Erase() error {
	if err := d.Shutdown(); err != nil {
		return err
	}
	_, err := simctlExec(context.Background(), "erase", d.udid)
	return d.wrapErr(err, "erase")
}

func (d *Device) wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &devicecontrol.DeviceError{Device: d, Msg: msg, Cause: err}
}

var (
	_ devicecontrol.Device    = (*Device)(nil)
	_ devicecontrol.Simulator = (*Device)(nil)
)
