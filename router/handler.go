package router

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shamanec/ios-device-control/devicecontrol"
	"github.com/shamanec/ios-device-control/model"
)

// ProviderDeviceRecord is the JSON shape exposed for one device, grounded
// in the teacher's models.Device, trimmed to the fields this module
// actually populates (SPEC_FULL §3).
type ProviderDeviceRecord struct {
	UDID       string `json:"udid"`
	Connected  bool   `json:"connected"`
	OS         string `json:"os"`
	Model      string `json:"model"`
	OSVersion  string `json:"os_version"`
	ScreenSize string `json:"screen_size,omitempty"`
	Host       string `json:"host"`
}

func toRecord(host string, d devicecontrol.Device) ProviderDeviceRecord {
	rec := ProviderDeviceRecord{UDID: d.UDID(), Connected: d.IsResponsive(), OS: "ios", Host: host}
	if m, err := d.Model(); err == nil {
		rec.Model = m.ProductName
	}
	if v, err := d.Version(); err == nil {
		rec.OSVersion = v.ProductVersion
	}
	return rec
}

// GetDevices lists every device currently registered with the host.
func GetDevices(c *gin.Context) {
	devices := devicecontrol.HostInstance().ConnectedDevices()
	out := make([]ProviderDeviceRecord, 0, len(devices))
	for _, d := range devices {
		out = append(out, toRecord(c.Request.Host, d))
	}
	c.JSON(http.StatusOK, out)
}

// GetDevice returns one device's record by UDID, including its current
// screen size — cheap enough to capture for a single device, unlike
// GetDevices' full fleet listing.
func GetDevice(c *gin.Context) {
	d, err := devicecontrol.HostInstance().ConnectedDevice(c.Param("udid"))
	if err != nil {
		jsonError(c, "get_device", err.Error(), http.StatusNotFound)
		return
	}
	rec := toRecord(c.Request.Host, d)
	if png, err := d.TakeScreenshot(); err == nil {
		if size, err := screenSize(png); err == nil {
			rec.ScreenSize = size
		}
	}
	c.JSON(http.StatusOK, rec)
}

type installRequest struct {
	Path string `json:"path" binding:"required"`
}

// InstallApplication installs the .app/.ipa at the request's path.
func InstallApplication(c *gin.Context) {
	d, err := devicecontrol.HostInstance().ConnectedDevice(c.Param("udid"))
	if err != nil {
		jsonError(c, "install_application", err.Error(), http.StatusNotFound)
		return
	}
	var req installRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, "install_application", err.Error(), http.StatusBadRequest)
		return
	}
	if err := d.InstallApplication(req.Path); err != nil {
		jsonError(c, "install_application", err.Error(), http.StatusInternalServerError)
		return
	}
	jsonOK(c, "installed "+req.Path)
}

type bundleIDRequest struct {
	BundleID string `json:"bundle_id" binding:"required"`
}

// UninstallApplication removes an installed app by bundle identifier.
func UninstallApplication(c *gin.Context) {
	d, err := devicecontrol.HostInstance().ConnectedDevice(c.Param("udid"))
	if err != nil {
		jsonError(c, "uninstall_application", err.Error(), http.StatusNotFound)
		return
	}
	var req bundleIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, "uninstall_application", err.Error(), http.StatusBadRequest)
		return
	}
	bundleID, err := model.NewAppBundleID(req.BundleID)
	if err != nil {
		jsonError(c, "uninstall_application", err.Error(), http.StatusBadRequest)
		return
	}
	if err := d.UninstallApplication(bundleID); err != nil {
		jsonError(c, "uninstall_application", err.Error(), http.StatusInternalServerError)
		return
	}
	jsonOK(c, "uninstalled "+req.BundleID)
}

type runRequest struct {
	BundleID string   `json:"bundle_id" binding:"required"`
	Args     []string `json:"args"`
}

// RunApplication launches an installed app and returns once the launch has
// started; the process's lifetime is not awaited by this handler — a
// caller that needs completion should watch /devices/:udid/logs/stream.
func RunApplication(c *gin.Context) {
	d, err := devicecontrol.HostInstance().ConnectedDevice(c.Param("udid"))
	if err != nil {
		jsonError(c, "run_application", err.Error(), http.StatusNotFound)
		return
	}
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, "run_application", err.Error(), http.StatusBadRequest)
		return
	}
	bundleID, err := model.NewAppBundleID(req.BundleID)
	if err != nil {
		jsonError(c, "run_application", err.Error(), http.StatusBadRequest)
		return
	}
	proc, err := d.RunApplication(bundleID, req.Args...)
	if err != nil {
		jsonError(c, "run_application", err.Error(), http.StatusInternalServerError)
		return
	}
	trackProcess(c.Param("udid"), proc)
	jsonOK(c, "launched "+req.BundleID)
}

// Screenshot returns the device's current screen as a PNG image.
func Screenshot(c *gin.Context) {
	d, err := devicecontrol.HostInstance().ConnectedDevice(c.Param("udid"))
	if err != nil {
		jsonError(c, "take_screenshot", err.Error(), http.StatusNotFound)
		return
	}
	png, err := d.TakeScreenshot()
	if err != nil {
		jsonError(c, "take_screenshot", err.Error(), http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// screenSize decodes a PNG's dimensions without loading the whole image,
// used to populate ProviderDeviceRecord.ScreenSize on demand.
func screenSize(png []byte) (string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil {
		return "", fmt.Errorf("router: decode screenshot dimensions: %w", err)
	}
	return fmt.Sprintf("%dx%d", cfg.Width, cfg.Height), nil
}

// Restart restarts the device.
func Restart(c *gin.Context) {
	d, err := devicecontrol.HostInstance().ConnectedDevice(c.Param("udid"))
	if err != nil {
		jsonError(c, "restart_device", err.Error(), http.StatusNotFound)
		return
	}
	if err := d.Restart(); err != nil {
		jsonError(c, "restart_device", err.Error(), http.StatusInternalServerError)
		return
	}
	jsonOK(c, "restarted")
}
