// Package config loads and exposes this provider's on-disk configuration,
// grounded on the teacher's util.GetConfigJsonData/config.Config singleton
// pattern: a JSON file is read once at process start into a package-level
// struct every other package reads thereafter.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shamanec/ios-device-control/realdevice"
)

// Supervision mirrors realdevice.SupervisionIdentity so config.json can be
// unmarshalled directly into the type the real-device driver consumes.
type Supervision struct {
	CertificatePath string `json:"certificate_path"`
	PrivateKeyPath  string `json:"private_key_path"`
}

// Data is the full shape of config.json.
type Data struct {
	// BindAddress is the host:port this provider's HTTP router listens on.
	BindAddress string `json:"bind_address"`
	// DevImagesDir is the root directory of <version>/*.dmg + *.signature
	// pairs consulted by the developer-disk-image resolver (package devimage).
	DevImagesDir string `json:"dev_images_dir"`
	// LogFolder holds the process-wide log plus one file per device.
	LogFolder string `json:"log_folder"`
	// Supervision is the cfgutil identity used for supervised real devices.
	// A zero value (both paths empty) means no supervision identity is
	// configured, matching realdevice.SupervisionIdentity's nil-means-none
	// convention.
	Supervision Supervision `json:"supervision"`
	// MongoURI configures the optional persistence sink (package store). An
	// empty string disables it.
	MongoURI string `json:"mongo_uri"`
	// SidecarImage is the Docker image run alongside each real device to
	// host its debugserver/web-inspector-proxy auxiliary processes. An
	// empty string disables sidecar supervision (package docker).
	SidecarImage string `json:"sidecar_image"`
	// SidecarContainerPort is the port the sidecar image listens on inside
	// its container.
	SidecarContainerPort int `json:"sidecar_container_port"`
}

// Config is the process-wide configuration, populated once by Load before
// any other package reads it — matching the teacher's global config.Config
// populated from disk before anything else runs.
var Config Data

// Load reads and unmarshals path into the package-level Config. It panics on
// a malformed or missing config file, since a provider cannot run at all
// without its configuration — the same "fail fast at startup" contract the
// teacher's SetupConfig applies.
func Load(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("config: could not read %s: %v", path, err))
	}
	if err := json.Unmarshal(data, &Config); err != nil {
		panic(fmt.Sprintf("config: could not parse %s: %v", path, err))
	}
}

// SupervisionIdentity returns the configured cfgutil supervision identity,
// or nil if none is configured.
func SupervisionIdentity() *realdevice.SupervisionIdentity {
	if Config.Supervision.CertificatePath == "" && Config.Supervision.PrivateKeyPath == "" {
		return nil
	}
	return &realdevice.SupervisionIdentity{
		CertificatePath: Config.Supervision.CertificatePath,
		PrivateKeyPath:  Config.Supervision.PrivateKeyPath,
	}
}
