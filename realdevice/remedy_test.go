package realdevice

import (
	"testing"

	"github.com/shamanec/ios-device-control/devicecontrol"
	"github.com/stretchr/testify/require"
)

func TestRemedyForStderrMatchesLastLine(t *testing.T) {
	cases := []struct {
		name   string
		stderr string
		want   devicecontrol.Remedy
	}{
		{"task for process", "some preamble\n$Efailed to get the task for process 123#", devicecontrol.ReinstallApp},
		{"timed out launch", "$Etimed out trying to launch app#", devicecontrol.RestartDevice},
		{"unknown appid", "Unknown APPID com.example.app", devicecontrol.ReinstallApp},
		{"no match", "totally unrelated output", devicecontrol.NoRemedy},
		{"empty", "", devicecontrol.NoRemedy},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, remedyForStderr(c.stderr))
		})
	}
}

func TestRemedyForStderrOnlyConsidersLastLine(t *testing.T) {
	stderr := "$Etimed out trying to launch app#\nharmless trailing line"
	require.Equal(t, devicecontrol.NoRemedy, remedyForStderr(stderr))
}
