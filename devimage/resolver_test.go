package devimage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeImageDir(t *testing.T, root, version string, withImage, withSignature bool) {
	t.Helper()
	dir := filepath.Join(root, version)
	require.NoError(t, os.Mkdir(dir, 0o755))
	if withImage {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "DeveloperDiskImage.dmg"), []byte("x"), 0o644))
	}
	if withSignature {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "DeveloperDiskImage.dmg.signature"), []byte("x"), 0o644))
	}
}

func TestFindForVersionMatchesMajorMinorPrefix(t *testing.T) {
	root := t.TempDir()
	makeImageDir(t, root, "13.0", true, true)
	makeImageDir(t, root, "12.4", true, true)

	img, err := NewResolver(root).FindForVersion("13.0.1")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "13.0", "DeveloperDiskImage.dmg"), img.ImagePath)
	require.Equal(t, filepath.Join(root, "13.0", "DeveloperDiskImage.dmg.signature"), img.SignaturePath)
}

func TestFindForVersionPrefersLongestMatchingPrefix(t *testing.T) {
	root := t.TempDir()
	makeImageDir(t, root, "13.0", true, true)
	makeImageDir(t, root, "13.0.1", true, true)

	img, err := NewResolver(root).FindForVersion("13.0.1")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "13.0.1", "DeveloperDiskImage.dmg"), img.ImagePath)
}

func TestFindForVersionRequiresTwoMatchingComponents(t *testing.T) {
	root := t.TempDir()
	makeImageDir(t, root, "13.1", true, true)

	_, err := NewResolver(root).FindForVersion("13.0")
	require.Error(t, err)
}

func TestFindForVersionNoMatch(t *testing.T) {
	root := t.TempDir()
	makeImageDir(t, root, "12.4", true, true)

	_, err := NewResolver(root).FindForVersion("13.0")
	require.Error(t, err)
}

func TestFindForVersionMultipleImageFiles(t *testing.T) {
	root := t.TempDir()
	makeImageDir(t, root, "13.0", true, true)
	require.NoError(t, os.WriteFile(filepath.Join(root, "13.0", "Extra.dmg"), []byte("x"), 0o644))

	_, err := NewResolver(root).FindForVersion("13.0")
	require.Error(t, err)
}

func TestFindForVersionInvalidVersionString(t *testing.T) {
	root := t.TempDir()
	_, err := NewResolver(root).FindForVersion("not-a-version")
	require.Error(t, err)
}
