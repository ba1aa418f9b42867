package simulator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

func writeDeviceTypeProfile(t *testing.T, path string, p deviceTypeProfile) {
	t.Helper()
	data, err := plist.Marshal(p, plist.XMLFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestReadDeviceTypeProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.plist")
	writeDeviceTypeProfile(t, path, deviceTypeProfile{
		ModelIdentifier: "iPhone14,5",
		SupportedArchs:  []string{"x86_64", "arm64"},
	})

	identifier, archs, err := readDeviceTypeProfile(path)
	require.NoError(t, err)
	require.Equal(t, "iPhone14,5", identifier)
	require.ElementsMatch(t, []string{"x86_64", "arm64"}, archs)
}

func TestReadDeviceTypeProfileMissingFile(t *testing.T) {
	_, _, err := readDeviceTypeProfile(filepath.Join(t.TempDir(), "missing.plist"))
	require.Error(t, err)
}

func writeInfoPlist(t *testing.T, path string, bundleID string) {
	t.Helper()
	data, err := plist.Marshal(struct {
		CFBundleIdentifier string
	}{CFBundleIdentifier: bundleID}, plist.XMLFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestListSystemAppsInDirSkipsEntriesWithoutInfoPlist(t *testing.T) {
	dir := t.TempDir()

	appDir := filepath.Join(dir, "MobileSMS.app")
	require.NoError(t, os.Mkdir(appDir, 0o755))
	writeInfoPlist(t, filepath.Join(appDir, "Info.plist"), "com.apple.MobileSMS")

	junkDir := filepath.Join(dir, "NotAnApp")
	require.NoError(t, os.Mkdir(junkDir, 0o755))

	apps, err := listSystemAppsInDir(dir)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.Equal(t, "com.apple.MobileSMS", apps[0].BundleID.String())
}

func TestListSystemAppsInDirMissingDirectoryIsNotAnError(t *testing.T) {
	apps, err := listSystemAppsInDir(filepath.Join(t.TempDir(), "nonexistent"))
	require.NoError(t, err)
	require.Nil(t, apps)
}
