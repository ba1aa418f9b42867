package simulator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shamanec/ios-device-control/model"
	"howett.net/plist"
)

type deviceTypeProfile struct {
	ModelIdentifier string   `plist:"modelIdentifier"`
	SupportedArchs  []string `plist:"supportedArchs"`
}

// readDeviceTypeProfile parses a CoreSimulator device-type's profile.plist
// for its modelIdentifier and supportedArchs list.
func readDeviceTypeProfile(path string) (identifier string, archs []string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("simulator: read device type profile %q: %w", path, err)
	}
	var p deviceTypeProfile
	if _, err := plist.Unmarshal(data, &p); err != nil {
		return "", nil, fmt.Errorf("simulator: parse device type profile %q: %w", path, err)
	}
	return p.ModelIdentifier, p.SupportedArchs, nil
}

var (
	systemAppsMu    sync.Mutex
	systemAppsCache = map[string][]model.AppInfo{}
)

// listSystemApps enumerates a runtime's preinstalled system apps, memoised
// per productVersion for the process lifetime (system apps never change
// once a runtime is installed), grounded on
// SimulatorDeviceHost.listSystemApps's runtime2SystemApps cache.
func listSystemApps(productVersion string) ([]model.AppInfo, error) {
	systemAppsMu.Lock()
	defer systemAppsMu.Unlock()

	if apps, ok := systemAppsCache[productVersion]; ok {
		return apps, nil
	}

	apps, err := listSystemAppsInDir(filepath.Join(runtimeRootPath(productVersion), "Applications"))
	if err != nil {
		return nil, err
	}
	systemAppsCache[productVersion] = apps
	return apps, nil
}

// listSystemAppsInDir does the actual Applications/* walk, split out from
// listSystemApps so it can be exercised against a fixture directory without
// a real CoreSimulator runtime installed.
func listSystemAppsInDir(appsDir string) ([]model.AppInfo, error) {
	entries, err := os.ReadDir(appsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("simulator: list system apps in %q: %w", appsDir, err)
	}

	var apps []model.AppInfo
	for _, e := range entries {
		appPath := filepath.Join(appsDir, e.Name())
		if _, err := os.Stat(filepath.Join(appPath, "Info.plist")); err != nil {
			continue
		}
		info, err := model.ReadAppInfo(appPath)
		if err == nil {
			apps = append(apps, info)
		}
	}
	return apps, nil
}

// runtimeRootPath picks between the two locations a given iOS runtime's
// SDK root can live in, depending on how it was installed: bundled with
// Xcode, or downloaded separately as a CoreSimulator profile.
func runtimeRootPath(productVersion string) string {
	sdkPath := fmt.Sprintf(
		"/Applications/Xcode.app/Contents/Developer/Platforms/iPhoneSimulator.platform/Developer/SDKs/iPhoneSimulator%s.sdk",
		productVersion)
	if _, err := os.Stat(sdkPath); err == nil {
		return sdkPath
	}
	return fmt.Sprintf(
		"/Library/Developer/CoreSimulator/Profiles/Runtimes/iOS %s.simruntime/Contents/Resources/RuntimeRoot",
		productVersion)
}
