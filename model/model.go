// Package model holds the value types shared across device drivers: the
// parsed hardware model/OS version pair, app bundle identifiers, and
// app bundle metadata. Grounded on RealDeviceImpl.java's IosModel/IosVersion
// builders and the teacher's IOSDeviceInfoMap, reconciled into a single
// table keyed by ProductType (the namespace `ideviceinfo -x` reports).
package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Model describes a device's hardware: CPU architecture, Apple's internal
// product-type string (e.g. "iPhone5,1"), the marketing product name
// resolved from productNames, and the device class (the product name's
// first token: iPad/iPhone/iPod).
type Model struct {
	Architecture string
	Identifier   string
	ProductName  string
}

// DeviceClass returns the first whitespace-delimited token of ProductName
// ("iPad Air 2" -> "iPad").
func (m Model) DeviceClass() string {
	if i := strings.IndexByte(m.ProductName, ' '); i >= 0 {
		return m.ProductName[:i]
	}
	return m.ProductName
}

// NewModel resolves identifier against the fixed product-name table. It
// returns an error rather than panicking because a never-seen ProductType
// (a device released after this table was last updated) is a data problem
// a caller can act on, not a programming error.
func NewModel(architecture, identifier string) (Model, error) {
	name, ok := productNames[identifier]
	if !ok {
		return Model{}, fmt.Errorf("model: no product name known for ProductType %q", identifier)
	}
	return Model{Architecture: architecture, Identifier: identifier, ProductName: name}, nil
}

// Version is a device's OS build/product version pair, e.g.
// buildVersion "12H321", productVersion "8.4.1".
type Version struct {
	BuildVersion   string
	ProductVersion string
}

var majorVersionPattern = regexp.MustCompile(`^\d+`)

// MajorVersion returns the integer prefix of ProductVersion, or 0 if it
// cannot be parsed (malformed ProductVersion string).
func (v Version) MajorVersion() int {
	m := majorVersionPattern.FindString(v.ProductVersion)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}

var bundleIDPattern = regexp.MustCompile(`^[A-Za-z0-9\-.]+$`)

// AppBundleID is a validated iOS bundle identifier (a printable UTI).
type AppBundleID string

// NewAppBundleID validates s as a bundle identifier. Grounded on the
// source's AppBundleId constructor-time regex check.
func NewAppBundleID(s string) (AppBundleID, error) {
	if !bundleIDPattern.MatchString(s) {
		return "", fmt.Errorf("model: invalid bundle id %q", s)
	}
	return AppBundleID(s), nil
}

func (id AppBundleID) String() string { return string(id) }

// AppInfo is the bundle identifier read out of an installable app's
// Info.plist, whether a plain .app directory or inside an .ipa's
// Payload/*.app.
type AppInfo struct {
	BundleID AppBundleID
}

// productNames reconciles the original source's ID_TO_PRODUCT_NAME
// (ProductType-keyed, e.g. "iPhone5,1" -> "iPhone 5") with the teacher's
// hardware-board-ID-keyed IOSDeviceInfoMap by keeping only the ProductType
// namespace, since that is what `ideviceinfo -x`'s ProductType field
// actually reports — the board-ID keys the teacher used have no
// counterpart in this driver's parsed device info and are dropped.
var productNames = map[string]string{
	"iPad1,1": "iPad",

	"iPad2,1": "iPad 2", "iPad2,2": "iPad 2", "iPad2,3": "iPad 2", "iPad2,4": "iPad 2",
	"iPad3,1": "iPad 3", "iPad3,2": "iPad 3", "iPad3,3": "iPad 3",
	"iPad3,4": "iPad 4", "iPad3,5": "iPad 4", "iPad3,6": "iPad 4",
	"iPad6,11": "iPad 5", "iPad6,12": "iPad 5",

	"iPad4,1": "iPad Air", "iPad4,2": "iPad Air", "iPad4,3": "iPad Air",
	"iPad5,3": "iPad Air 2", "iPad5,4": "iPad Air 2",

	"iPad2,5": "iPad mini", "iPad2,6": "iPad mini", "iPad2,7": "iPad mini",
	"iPad4,4": "iPad mini 2", "iPad4,5": "iPad mini 2", "iPad4,6": "iPad mini 2",
	"iPad4,7": "iPad mini 3", "iPad4,8": "iPad mini 3", "iPad4,9": "iPad mini 3",
	"iPad5,1": "iPad mini 4", "iPad5,2": "iPad mini 4",

	"iPad6,3": "iPad Pro (9.7-inch)", "iPad6,4": "iPad Pro (9.7-inch)",
	"iPad7,3": "iPad Pro (10.5-inch)", "iPad7,4": "iPad Pro (10.5-inch)",
	"iPad6,7": "iPad Pro (12.9-inch)", "iPad6,8": "iPad Pro (12.9-inch)",
	"iPad7,1": "iPad Pro (12.9-inch) 2", "iPad7,2": "iPad Pro (12.9-inch) 2",

	"iPhone1,1": "iPhone",
	"iPhone1,2": "iPhone 3G",
	"iPhone2,1": "iPhone 3GS",
	"iPhone3,1": "iPhone 4", "iPhone3,2": "iPhone 4", "iPhone3,3": "iPhone 4",
	"iPhone4,1": "iPhone 4S",
	"iPhone5,1": "iPhone 5", "iPhone5,2": "iPhone 5",
	"iPhone5,3": "iPhone 5c", "iPhone5,4": "iPhone 5c",
	"iPhone6,1": "iPhone 5s", "iPhone6,2": "iPhone 5s",
	"iPhone7,2": "iPhone 6",
	"iPhone7,1": "iPhone 6 Plus",
	"iPhone8,1": "iPhone 6s",
	"iPhone8,2": "iPhone 6s Plus",
	"iPhone8,4": "iPhone SE",
	"iPhone9,1": "iPhone 7", "iPhone9,3": "iPhone 7",
	"iPhone9,2": "iPhone 7 Plus", "iPhone9,4": "iPhone 7 Plus",
}
