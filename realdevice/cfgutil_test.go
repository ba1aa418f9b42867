package realdevice

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCfgutilCommandsGetBuildsBaseArgs(t *testing.T) {
	c := cfgutilCommands{ecid: "ecid-1"}

	cmd := c.get("batteryCurrentCapacity")
	require.Equal(t, "cfgutil", cmd.Executable)
	require.Equal(t, []string{"--format", "plist", "-e", "ecid-1", "get", "batteryCurrentCapacity"}, cmd.Args)
}

func TestCfgutilCommandsSupervisedRequiresIdentity(t *testing.T) {
	c := cfgutilCommands{ecid: "ecid-1"}

	_, err := c.pair()
	require.Error(t, err)
}

func TestCfgutilCommandsSupervisedIncludesCredentials(t *testing.T) {
	c := cfgutilCommands{
		ecid: "ecid-1",
		supervisionID: &SupervisionIdentity{
			CertificatePath: "/cert.pem",
			PrivateKeyPath:  "/key.pem",
		},
	}

	cmd, err := c.installProfile("/profile.mobileconfig")
	require.NoError(t, err)
	require.Equal(t, []string{
		"--format", "plist", "-e", "ecid-1",
		"-C", "/cert.pem", "-K", "/key.pem",
		"install-profile", "/profile.mobileconfig",
	}, cmd.Args)
	require.True(t, c.isSupervised())
}
