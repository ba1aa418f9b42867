package model

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

func writePlist(t *testing.T, path string, bundleID string) {
	t.Helper()
	data, err := plist.Marshal(infoPlist{CFBundleIdentifier: bundleID}, plist.XMLFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestReadAppInfoFromBundleDirectory(t *testing.T) {
	dir := t.TempDir()
	appDir := filepath.Join(dir, "Example.app")
	require.NoError(t, os.Mkdir(appDir, 0o755))
	writePlist(t, filepath.Join(appDir, "Info.plist"), "com.example.App")

	info, err := ReadAppInfo(appDir)
	require.NoError(t, err)
	require.Equal(t, "com.example.App", info.BundleID.String())
}

func TestReadAppInfoFromIPA(t *testing.T) {
	dir := t.TempDir()
	ipaPath := filepath.Join(dir, "Example.ipa")

	f, err := os.Create(ipaPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	plistData, err := plist.Marshal(infoPlist{CFBundleIdentifier: "com.example.IPA"}, plist.XMLFormat)
	require.NoError(t, err)

	w, err := zw.Create("Payload/Example.app/Info.plist")
	require.NoError(t, err)
	_, err = w.Write(plistData)
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	info, err := ReadAppInfo(ipaPath)
	require.NoError(t, err)
	require.Equal(t, "com.example.IPA", info.BundleID.String())
}

func TestReadAppInfoFromIPAMissingInfoPlist(t *testing.T) {
	dir := t.TempDir()
	ipaPath := filepath.Join(dir, "Empty.ipa")

	f, err := os.Create(ipaPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = ReadAppInfo(ipaPath)
	require.Error(t, err)
}
