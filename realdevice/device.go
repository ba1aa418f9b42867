// Package realdevice drives a physical iOS device through the
// libimobiledevice CLI tools (idevice*) and cfgutil, grounded on
// original_source/java/.../real/RealDeviceImpl.java (read in full).
package realdevice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shamanec/ios-device-control/cache"
	"github.com/shamanec/ios-device-control/command"
	"github.com/shamanec/ios-device-control/devicecontrol"
	"github.com/shamanec/ios-device-control/devimage"
	"github.com/shamanec/ios-device-control/model"
	"github.com/shamanec/ios-device-control/retry"
	"github.com/shamanec/ios-device-control/webinspector"
	"golang.org/x/image/tiff"
	"howett.net/plist"
)

// Device drives one physical iOS device over USB via libimobiledevice.
type Device struct {
	udid    string
	idevice ideviceCommands
	cfgutil cfgutilCommands
	images  devimage.Resolver

	// Every ideviceinfo value is constant for the lifetime a device stays
	// attached to the host — the one exception, TimeIntervalSince1970, is
	// never read here — so info/model/version are safe to memoize.
	infoMemo    *cache.Memo[map[string]string]
	modelMemo   *cache.Memo[model.Model]
	versionMemo *cache.Memo[model.Version]

	systemLoggerStarted atomic.Bool
	restarting          atomic.Bool
}

// New constructs a Device for an already-enumerated real-device udid.
// supervisionID may be nil if the host has no Apple Configurator
// supervision identity configured; devImagesDir is the root directory
// devimage.Resolver searches for developer disk images.
func New(udid string, supervisionID *SupervisionIdentity, devImagesDir string) *Device {
	d := &Device{
		udid:    udid,
		idevice: ideviceCommands{udid: udid},
		cfgutil: cfgutilCommands{ecid: udid, supervisionID: supervisionID},
		images:  devimage.NewResolver(devImagesDir),
	}
	d.infoMemo = cache.New(d.fetchDeviceInfo)
	d.modelMemo = cache.New(d.resolveModel)
	d.versionMemo = cache.New(d.resolveVersion)
	return d
}

func (d *Device) UDID() string { return d.udid }

func (d *Device) IsResponsive() bool {
	res, err := d.execIdevice(d.idevice.date())
	return err == nil && strings.TrimSpace(res.StdoutString()) != ""
}

func (d *Device) IsRestarting() bool { return d.restarting.Load() }

func (d *Device) BatteryLevel() (int, error) {
	res, err := d.execIdevice(d.idevice.info("-k", "BatteryCurrentCapacity", "-q", "com.apple.mobile.battery"))
	if err != nil {
		return 0, d.wrapErr(err, "read battery level")
	}
	level, parseErr := strconv.Atoi(strings.TrimSpace(res.StdoutString()))
	if parseErr != nil {
		return 0, d.wrapErr(parseErr, "parse battery level")
	}
	return level, nil
}

func (d *Device) Model() (model.Model, error) { return d.modelMemo.Get() }

func (d *Device) Version() (model.Version, error) { return d.versionMemo.Get() }

func (d *Device) fetchDeviceInfo() (map[string]string, error) {
	res, err := d.execIdevice(d.idevice.info("-x"))
	if err != nil {
		return nil, d.wrapErr(err, "read device info")
	}
	var raw map[string]interface{}
	if _, err := plist.Unmarshal(res.StdoutBytes, &raw); err != nil {
		return nil, d.wrapErr(err, "decode device info plist")
	}
	info := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			info[k] = s
		}
	}
	return info, nil
}

func (d *Device) resolveModel() (model.Model, error) {
	info, err := d.infoMemo.Get()
	if err != nil {
		return model.Model{}, err
	}
	m, err := model.NewModel(info["CPUArchitecture"], info["ProductType"])
	if err != nil {
		return model.Model{}, d.wrapErr(err, "resolve model")
	}
	return m, nil
}

func (d *Device) resolveVersion() (model.Version, error) {
	info, err := d.infoMemo.Get()
	if err != nil {
		return model.Version{}, err
	}
	return model.Version{BuildVersion: info["BuildVersion"], ProductVersion: info["ProductVersion"]}, nil
}

type installedApp struct {
	CFBundleIdentifier string `plist:"CFBundleIdentifier"`
}

func (d *Device) ListApplications() ([]model.AppInfo, error) {
	res, err := d.execIdevice(d.idevice.installer("-l", "-o", "xml"))
	if err != nil {
		return nil, d.wrapErr(err, "list applications")
	}
	var apps []installedApp
	if _, err := plist.Unmarshal(res.StdoutBytes, &apps); err != nil {
		return nil, d.wrapErr(err, "decode application list plist")
	}
	out := make([]model.AppInfo, 0, len(apps))
	for _, a := range apps {
		bundleID, err := model.NewAppBundleID(a.CFBundleIdentifier)
		if err != nil {
			continue
		}
		out = append(out, model.AppInfo{BundleID: bundleID})
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

// InstallApplication installs pathToAppOrIPA, transparently uninstalling
// and reinstalling on the source's documented MismatchedApplicationIdentifierEntitlement
// failure mode, then verifies the bundle actually appears installed
// afterward — catching a failed install early and ensuring the device's
// internal app list is current before a caller immediately runs it.
func (d *Device) InstallApplication(pathToAppOrIPA string) error {
	info, err := model.ReadAppInfo(pathToAppOrIPA)
	if err != nil {
		return d.wrapErr(err, "read app info before install")
	}

	_, err = d.execIdevice(d.idevice.installer("-i", pathToAppOrIPA))
	if err != nil {
		var failure *command.FailureError
		if errors.As(err, &failure) && strings.Contains(failure.Result.StderrString(), "MismatchedApplicationIdentifierEntitlement") {
			if _, uerr := d.execIdevice(d.idevice.installer("-U", info.BundleID.String())); uerr != nil {
				return d.wrapErr(uerr, "uninstall mismatched app before reinstall")
			}
			if _, ierr := d.execIdevice(d.idevice.installer("-i", pathToAppOrIPA)); ierr != nil {
				return d.wrapErr(ierr, "install application")
			}
		} else {
			return d.wrapErr(err, "install application")
		}
	}

	installed, err := d.IsApplicationInstalled(info.BundleID)
	if err != nil {
		return err
	}
	if !installed {
		return d.wrapErr(fmt.Errorf("%s not in application list after install", info.BundleID), "install application")
	}
	return nil
}

func (d *Device) UninstallApplication(bundleID model.AppBundleID) error {
	installed, err := d.IsApplicationInstalled(bundleID)
	if err != nil {
		return err
	}
	if !installed {
		return nil
	}
	_, err = d.execIdevice(d.idevice.installer("-U", bundleID.String()))
	return d.wrapErr(err, "uninstall application")
}

func (d *Device) RunApplication(bundleID model.AppBundleID, args ...string) (devicecontrol.AppProcess, error) {
	apprunnerArgs := append([]string{"-d", "-s", bundleID.String(), "--args"}, args...)
	proc, err := d.startApprunner(context.Background(), apprunnerArgs)
	if err != nil {
		return nil, err
	}
	return &appProcess{device: d, proc: proc}, nil
}

func (d *Device) StartSystemLogger(logPath string) (devicecontrol.DeviceResource, error) {
	if !d.systemLoggerStarted.CompareAndSwap(false, true) {
		panic("realdevice: system logger has already been started")
	}
	cmd := d.idevice.syslog(logPath).WithSuccessExitCodes(0, 143, 255)
	proc, err := command.Start(cmd)
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
		panic("realdevice: system logger has already been stopped")
	}
	if !r.device.systemLoggerStarted.CompareAndSwap(true, false) {
		panic("realdevice: system logger has already been stopped")
	}
	_ = r.proc.Kill()
	_, err := r.proc.Await(context.Background())
	return err
}

func (d *Device) PullCrashLogs(dir string) error {
	_, err := d.execIdevice(d.idevice.crashreport(dir))
	return d.wrapErr(err, "pull crash logs")
}

func (d *Device) ClearCrashLogs() error {
	tmpDir, err := os.MkdirTemp("", "ios-device-control-crashreport-")
	if err != nil {
		return d.wrapErr(err, "create temp dir for crash log clear")
	}
	defer os.RemoveAll(tmpDir)
	_, err = d.execIdevice(d.idevice.crashreport(tmpDir))
	return d.wrapErr(err, "clear crash logs")
}

func (d *Device) InstallProfile(path string) error {
	cmd, err := d.cfgutil.installProfile(path)
	if err != nil {
		return d.wrapErr(err, "install profile")
	}
	_, err = command.Execute(context.Background(), cmd)
	return d.wrapErr(err, "install profile")
}

// RemoveProfile tolerates cfgutil's "no such profile" warning as a no-op,
// matching the source's message-substring check.
func (d *Device) RemoveProfile(identifier string) error {
	cmd, err := d.cfgutil.removeProfile(identifier)
	if err != nil {
		return d.wrapErr(err, "remove profile")
	}
	_, err = command.Execute(context.Background(), cmd)
	if err == nil {
		return nil
	}
	var failure *command.FailureError
	if errors.As(err, &failure) && strings.Contains(failure.Result.StderrString(), "cfgutil: warning: no such profile") {
		return nil
	}
	return d.wrapErr(err, "remove profile")
}

type configurationProfilesPlist struct {
	Devices []string                                `plist:"Devices"`
	Output  map[string]configurationProfilesOutput `plist:"Output"`
}

type configurationProfilesOutput struct {
	ConfigurationProfiles []configurationProfilePlist `plist:"configurationProfiles"`
}

type configurationProfilePlist struct {
	DisplayName string `plist:"displayName"`
	Identifier  string `plist:"identifier"`
	Version     int    `plist:"version"`
}

// ListConfigurationProfiles returns the identifier of every configuration
// profile installed on the device.
func (d *Device) ListConfigurationProfiles() ([]string, error) {
	res, err := command.Execute(context.Background(), d.cfgutil.get("configurationProfiles"))
	if err != nil {
		return nil, d.wrapErr(err, "list configuration profiles")
	}
	var out configurationProfilesPlist
	if _, err := plist.Unmarshal(res.StdoutBytes, &out); err != nil {
		return nil, d.wrapErr(err, "decode configuration profiles plist")
	}
	if len(out.Devices) == 0 {
		return nil, nil
	}
	profiles := out.Output[out.Devices[0]].ConfigurationProfiles
	identifiers := make([]string, 0, len(profiles))
	for _, p := range profiles {
		identifiers = append(identifiers, p.Identifier)
	}
	return identifiers, nil
}

// SyncToSystemTime is a one-way sync; idevicedate does not currently
// produce a datetime string this module could reliably re-parse (it uses
// ambiguous timezone abbreviations rather than offsets), so there is no
// corresponding read-back operation.
func (d *Device) SyncToSystemTime() error {
	_, err := d.execIdevice(d.idevice.date("--sync"))
	return d.wrapErr(err, "sync to system time")
}

// TakeScreenshot normalises pre-iOS-9 devices' TIFF screenshot output to
// PNG, since idevicescreenshot's format depends on the connected device's
// iOS version.
func (d *Device) TakeScreenshot() ([]byte, error) {
	f, err := os.CreateTemp("", "ios-device-control-screenshot-*.out")
	if err != nil {
		return nil, d.wrapErr(err, "create screenshot temp file")
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	proc, err := d.retryWithDeveloperImageMount(context.Background(), true, d.idevice.screenshot(path))
	if err != nil {
		return nil, err
	}
	if _, err := proc.Await(context.Background()); err != nil {
		return nil, d.wrapErr(err, "take screenshot")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, d.wrapErr(err, "read screenshot file")
	}
	if isPNG(data) {
		return data, nil
	}
	pngBytes, err := convertTIFFToPNG(data)
	if err != nil {
		return nil, d.wrapErr(err, "convert screenshot to PNG")
	}
	return pngBytes, nil
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func isPNG(data []byte) bool {
	return len(data) >= len(pngMagic) && bytes.Equal(data[:len(pngMagic)], pngMagic)
}

func convertTIFFToPNG(data []byte) ([]byte, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode TIFF: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Restart reboots the device and blocks until it responds again: the
// reboot itself takes at least 30 seconds, then responsiveness is polled
// every 5 seconds for up to a minute.
func (d *Device) Restart() error {
	if _, err := d.execIdevice(d.idevice.diagnostics("restart")); err != nil {
		return d.wrapErr(err, "restart")
	}

	d.restarting.Store(true)
	defer d.restarting.Store(false)

	time.Sleep(30 * time.Second)

	r := retry.New().WithMaxAttempts(12).WithDelay(5 * time.Second)
	_, err := retry.Do(context.Background(), r, func(ctx context.Context) (struct{}, error) {
		if !d.IsResponsive() {
			return struct{}{}, fmt.Errorf("device unresponsive after reboot")
		}
		return struct{}{}, nil
	})
	if err != nil {
		return d.wrapErr(err, "restart")
	}
	return nil
}

// OpenWebInspectorSocket spawns idevicewebinspectorproxy bound to an
// ephemeral local port and connects to it, retrying while the proxy
// process comes up. Grounded on RealDeviceImpl.java's web-inspector-socket
// algorithm (SPEC_FULL §4.5) and implemented on package webinspector.
func (d *Device) OpenWebInspectorSocket() (devicecontrol.InspectorSocket, error) {
	client, err := webinspector.DialRealDevice(d.udid)
	if err != nil {
		return nil, d.wrapErr(err, "open web inspector socket")
	}
	return client, nil
}

func (d *Device) wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &devicecontrol.DeviceError{Device: d, Msg: msg, Cause: err}
}

var (
	_ devicecontrol.Device     = (*Device)(nil)
	_ devicecontrol.RealDevice = (*Device)(nil)
)
