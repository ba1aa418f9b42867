package model

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"
)

// infoPlist is the subset of Info.plist fields this driver cares about.
type infoPlist struct {
	CFBundleIdentifier string `plist:"CFBundleIdentifier"`
}

// ReadAppInfo extracts the bundle identifier from an installable app: a
// plain "*.app" directory's Info.plist, or an ".ipa" archive's
// Payload/*.app/Info.plist. Grounded on SPEC_FULL §3 ("AppInfo... read
// from an .app directory's Info.plist or from Payload/*.app/Info.plist
// inside an .ipa archive").
func ReadAppInfo(pathToAppOrIPA string) (AppInfo, error) {
	if strings.EqualFold(filepath.Ext(pathToAppOrIPA), ".ipa") {
		return readAppInfoFromIPA(pathToAppOrIPA)
	}
	return readAppInfoFromBundle(pathToAppOrIPA)
}

func readAppInfoFromBundle(appDir string) (AppInfo, error) {
	data, err := os.ReadFile(filepath.Join(appDir, "Info.plist"))
	if err != nil {
		return AppInfo{}, fmt.Errorf("model: read Info.plist in %q: %w", appDir, err)
	}
	return appInfoFromPlistBytes(data)
}

func readAppInfoFromIPA(ipaPath string) (AppInfo, error) {
	r, err := zip.OpenReader(ipaPath)
	if err != nil {
		return AppInfo{}, fmt.Errorf("model: open ipa %q: %w", ipaPath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		// Payload/<AnyName>.app/Info.plist, exactly one path segment deep
		// inside the .app directory — nested frameworks have their own
		// Info.plist which must not be mistaken for the app's own.
		parts := strings.Split(f.Name, "/")
		if len(parts) == 3 && parts[0] == "Payload" && strings.HasSuffix(parts[1], ".app") && parts[2] == "Info.plist" {
			rc, err := f.Open()
			if err != nil {
				return AppInfo{}, fmt.Errorf("model: open %q in ipa: %w", f.Name, err)
			}
			data, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return AppInfo{}, fmt.Errorf("model: read %q in ipa: %w", f.Name, err)
			}
			return appInfoFromPlistBytes(data)
		}
	}
	return AppInfo{}, fmt.Errorf("model: no Payload/*.app/Info.plist found in %q", ipaPath)
}

func appInfoFromPlistBytes(data []byte) (AppInfo, error) {
	var parsed infoPlist
	if _, err := plist.Unmarshal(data, &parsed); err != nil {
		return AppInfo{}, fmt.Errorf("model: parse Info.plist: %w", err)
	}
	id, err := NewAppBundleID(parsed.CFBundleIdentifier)
	if err != nil {
		return AppInfo{}, fmt.Errorf("model: Info.plist CFBundleIdentifier: %w", err)
	}
	return AppInfo{BundleID: id}, nil
}
