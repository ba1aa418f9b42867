// Package devimage locates a developer disk image and its signature for a
// given iOS product version within a directory laid out like Xcode's
// iPhoneOS.platform/DeviceSupport: one subdirectory per supported version,
// each holding a single .dmg and a single .signature file.
//
// Grounded on original_source/java/.../real/DevDiskImages.java, transcribed
// algorithm-for-algorithm (VERSION_PATTERN, longest-common-prefix directory
// match, minimum two matching version components, single-file validation).
package devimage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	imageExtension     = "dmg"
	signatureExtension = "signature"

	// minMatchingVersionComponents is the source's ">1" threshold: a
	// candidate directory must match at least two leading version-number
	// components (e.g. "13.0" vs "13.0.1"), not just the major version.
	minMatchingVersionComponents = 2
)

var versionPattern = regexp.MustCompile(`^(\d+(?:\.\d+)+)`)

// DiskImage is a matched image/signature file pair.
type DiskImage struct {
	ImagePath     string
	SignaturePath string
}

// Resolver finds developer disk images under a fixed root directory.
type Resolver struct {
	rootImagesDir string
}

// NewResolver builds a Resolver rooted at rootImagesDir.
func NewResolver(rootImagesDir string) Resolver {
	return Resolver{rootImagesDir: rootImagesDir}
}

// FindForVersion returns the disk image whose directory name shares the
// longest matching prefix of version-number components with iosVersion,
// breaking ties in directory-listing order (first wins), and requiring at
// least two matching components.
func (r Resolver) FindForVersion(iosVersion string) (DiskImage, error) {
	deviceVersionNums, ok := splitVersionString(iosVersion)
	if !ok {
		return DiskImage{}, fmt.Errorf("devimage: invalid product version string: %q", iosVersion)
	}

	entries, err := os.ReadDir(r.rootImagesDir)
	if err != nil {
		return DiskImage{}, fmt.Errorf("devimage: read images directory %q: %w", r.rootImagesDir, err)
	}

	var bestDir string
	bestMatch := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dirVersionNums, ok := splitVersionString(e.Name())
		if !ok {
			continue
		}
		matching := lengthCommonPrefix(deviceVersionNums, dirVersionNums)
		if matching > bestMatch && matching > minMatchingVersionComponents-1 {
			bestDir = filepath.Join(r.rootImagesDir, e.Name())
			bestMatch = matching
		}
	}
	if bestDir == "" {
		return DiskImage{}, fmt.Errorf("devimage: no disk image directory found for version %q", iosVersion)
	}

	image, err := findFileWithExtension(bestDir, imageExtension)
	if err != nil {
		return DiskImage{}, err
	}
	signature, err := findFileWithExtension(bestDir, signatureExtension)
	if err != nil {
		return DiskImage{}, err
	}
	return DiskImage{ImagePath: image, SignaturePath: signature}, nil
}

func findFileWithExtension(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("devimage: read %q: %w", dir, err)
	}
	var match string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "."+ext) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("devimage: multiple .%s files in %q", ext, dir)
		}
		match = filepath.Join(dir, e.Name())
	}
	if match == "" {
		return "", fmt.Errorf("devimage: no .%s file in %q", ext, dir)
	}
	return match, nil
}

func splitVersionString(s string) ([]string, bool) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	return strings.Split(m[1], "."), true
}

func lengthCommonPrefix(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
