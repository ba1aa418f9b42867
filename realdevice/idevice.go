package realdevice

import "github.com/shamanec/ios-device-control/command"

// ideviceCommands builds Command values for the libimobiledevice CLI
// tools, each scoped to one device via a leading "-u <udid>" argument and
// run with an explicit empty environment — grounded on
// real/IdeviceCommands.java.
type ideviceCommands struct {
	udid string
}

func (c ideviceCommands) build(executable string, args ...string) command.Command {
	full := append([]string{"-u", c.udid}, args...)
	return command.New(executable, full...).WithEnvironment()
}

func (c ideviceCommands) apprunner(args ...string) command.Command {
	return c.build("idevice-app-runner", args...)
}

func (c ideviceCommands) date(args ...string) command.Command {
	return c.build("idevicedate", args...)
}

func (c ideviceCommands) diagnostics(args ...string) command.Command {
	return c.build("idevicediagnostics", args...)
}

func (c ideviceCommands) imagemounter(args ...string) command.Command {
	return c.build("ideviceimagemounter", args...)
}

func (c ideviceCommands) info(args ...string) command.Command {
	return c.build("ideviceinfo", args...)
}

func (c ideviceCommands) installer(args ...string) command.Command {
	return c.build("ideviceinstaller", args...)
}

func (c ideviceCommands) screenshot(args ...string) command.Command {
	return c.build("idevicescreenshot", args...)
}

func (c ideviceCommands) syslog(logPath string) command.Command {
	return c.build("idevicesyslog").WithStdoutToFile(logPath, false)
}

func (c ideviceCommands) crashreport(args ...string) command.Command {
	return c.build("idevicecrashreport", args...)
}
