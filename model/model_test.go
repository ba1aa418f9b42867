package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewModelResolvesKnownProductType(t *testing.T) {
	m, err := NewModel("arm64", "iPhone9,1")
	require.NoError(t, err)
	require.Equal(t, "iPhone 7", m.ProductName)
	require.Equal(t, "iPhone", m.DeviceClass())
}

func TestNewModelRejectsUnknownProductType(t *testing.T) {
	_, err := NewModel("arm64", "iPhone99,99")
	require.Error(t, err)
}

func TestDeviceClassForIPadAir(t *testing.T) {
	m, err := NewModel("arm64", "iPad5,3")
	require.NoError(t, err)
	require.Equal(t, "iPad Air 2", m.ProductName)
	require.Equal(t, "iPad", m.DeviceClass())
}

func TestMajorVersionParsesIntegerPrefix(t *testing.T) {
	v := Version{ProductVersion: "8.4.1"}
	require.Equal(t, 8, v.MajorVersion())
}

func TestMajorVersionZeroOnMalformed(t *testing.T) {
	v := Version{ProductVersion: "not-a-version"}
	require.Equal(t, 0, v.MajorVersion())
}

func TestNewAppBundleIDValidates(t *testing.T) {
	id, err := NewAppBundleID("com.example.MyApp")
	require.NoError(t, err)
	require.Equal(t, "com.example.MyApp", id.String())

	_, err = NewAppBundleID("not valid!")
	require.Error(t, err)
}
