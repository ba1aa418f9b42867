package realdevice

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdeviceCommandsPrefixUDID(t *testing.T) {
	c := ideviceCommands{udid: "abc123"}

	cmd := c.info("-x")
	require.Equal(t, "ideviceinfo", cmd.Executable)
	require.Equal(t, []string{"-u", "abc123", "-x"}, cmd.Args)
}

func TestIdeviceCommandsSyslogWritesToFile(t *testing.T) {
	c := ideviceCommands{udid: "abc123"}

	cmd := c.syslog("/tmp/log.txt")
	require.Equal(t, "idevicesyslog", cmd.Executable)
	require.Equal(t, []string{"-u", "abc123"}, cmd.Args)
	require.Equal(t, "/tmp/log.txt", cmd.Stdout.Path)
}
