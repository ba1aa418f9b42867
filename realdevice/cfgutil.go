package realdevice

import (
	"fmt"

	"github.com/shamanec/ios-device-control/command"
)

// SupervisionIdentity is the certificate/key pair required to run
// Apple-Configurator-supervised cfgutil subcommands. A nil
// *SupervisionIdentity on cfgutilCommands means the device host has none
// configured, matching the source's Optional<SupervisionIdentity>.
type SupervisionIdentity struct {
	CertificatePath string
	PrivateKeyPath  string
}

// cfgutilCommands builds Command values for cfgutil, scoped to one
// device's ECID (cfgutil also accepts a UDID for -e in practice).
// Grounded on real/CfgutilCommands.java.
type cfgutilCommands struct {
	ecid          string
	supervisionID *SupervisionIdentity
}

func (c cfgutilCommands) isSupervised() bool { return c.supervisionID != nil }

func (c cfgutilCommands) build(args ...string) command.Command {
	full := append([]string{"--format", "plist", "-e", c.ecid}, args...)
	return command.New("cfgutil", full...).WithEnvironment()
}

func (c cfgutilCommands) get(property string) command.Command {
	return c.build("get", property)
}

func (c cfgutilCommands) supervised(subcommand string, args ...string) (command.Command, error) {
	if !c.isSupervised() {
		return command.Command{}, fmt.Errorf(
			"realdevice: must configure a supervision identity to use `cfgutil %s`", subcommand)
	}
	full := append([]string{"-C", c.supervisionID.CertificatePath, "-K", c.supervisionID.PrivateKeyPath, subcommand}, args...)
	return c.build(full...), nil
}

func (c cfgutilCommands) installProfile(profilePath string) (command.Command, error) {
	return c.supervised("install-profile", profilePath)
}

func (c cfgutilCommands) pair() (command.Command, error) {
	return c.supervised("pair")
}

func (c cfgutilCommands) removeProfile(pathOrIdentifier string) (command.Command, error) {
	return c.supervised("remove-profile", pathOrIdentifier)
}
