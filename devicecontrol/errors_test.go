package devicecontrol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeviceErrorWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	e := &DeviceError{Device: &fakeDevice{udid: "AAA"}, Msg: "install failed", Cause: cause, Remedy: ReinstallApp}
	require.ErrorIs(t, e, cause)
	require.Contains(t, e.Error(), "AAA")
	require.Contains(t, e.Error(), "install failed")
	require.Equal(t, "REINSTALL_APP", e.Remedy.String())
}

func TestDeviceErrorWithoutCause(t *testing.T) {
	e := &DeviceError{Device: &fakeDevice{udid: "BBB"}, Msg: "not responsive"}
	require.Equal(t, "NONE", e.Remedy.String())
	require.NotContains(t, e.Error(), "<nil>")
}
