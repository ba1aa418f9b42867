// Package simulator drives iOS Simulator devices through `xcrun simctl`,
// adapted from the teacher's ios_sim/simctl.go (XcrunExecGeneric, JSON-
// decoded `simctl list devices -je` output) and reshaped around
// SimulatorDeviceImpl.java's algorithms: install unzips an .ipa, boot
// polls until the device can produce a screenshot, and shutdown/boot on
// an already-transitioned simulator tolerate simctl's documented exit
// code 163 as a no-op.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shamanec/ios-device-control/command"
)

// simctlDevice mirrors one entry of `simctl list devices -je`'s per-runtime
// device array.
type simctlDevice struct {
	UDID        string `json:"udid"`
	Name        string `json:"name"`
	State       string `json:"state"`
	IsAvailable bool   `json:"isAvailable"`
}

type simctlList struct {
	Devices map[string][]simctlDevice `json:"devices"`
}

// listDevices runs `xcrun simctl list devices -je` and decodes its output,
// grounded on the teacher's GetSimulatorsData.
func listDevices(ctx context.Context) (simctlList, error) {
	res, err := command.Execute(ctx, command.New("xcrun", "simctl", "list", "devices", "-je"))
	if err != nil {
		return simctlList{}, fmt.Errorf("simulator: simctl list: %w", err)
	}
	var out simctlList
	if err := json.Unmarshal(res.StdoutBytes, &out); err != nil {
		return simctlList{}, fmt.Errorf("simulator: decode simctl list output: %w", err)
	}
	return out, nil
}

// runtimeProductVersion extracts "13.0" out of a `simctl list` runtime key
// like "com.apple.CoreSimulator.SimRuntime.iOS-13-0" or the legacy
// "iOS 13.0" form the teacher's decoder assumed.
func runtimeProductVersion(runtimeKey string) string {
	if idx := strings.LastIndex(runtimeKey, ".iOS-"); idx >= 0 {
		return strings.ReplaceAll(runtimeKey[idx+len(".iOS-"):], "-", ".")
	}
	return strings.TrimPrefix(runtimeKey, "iOS ")
}

const (
	// simctlNoOpExitCode is simctl's documented exit code for a
	// shutdown-while-shutdown or boot-while-booted no-op.
	simctlNoOpExitCode = 163
)

func simctlExec(ctx context.Context, args ...string) (*command.Result, error) {
	full := append([]string{"simctl"}, args...)
	return command.Execute(ctx, command.New("xcrun", full...).WithSuccessExitCodes(0))
}

// simctlExecTolerating163 runs a simctl subcommand tolerating its
// documented "already in that state" exit code as success.
func simctlExecTolerating163(ctx context.Context, args ...string) (*command.Result, error) {
	full := append([]string{"simctl"}, args...)
	return command.Execute(ctx, command.New("xcrun", full...).WithSuccessExitCodes(0, simctlNoOpExitCode))
}

// screenSize parses "Pixel Size: {W, H}" and "Preferred UI Scale: N" out of
// `simctl io <udid> enumerate`'s output and returns the scaled point size,
// grounded on the teacher's GetSimScreenSize.
func screenSize(ctx context.Context, udid string) (width, height int, err error) {
	res, err := simctlExec(ctx, "io", udid, "enumerate")
	if err != nil {
		return 0, 0, err
	}

	var w, h, scale int
	for _, line := range strings.Split(res.StdoutString(), "\n") {
		switch {
		case strings.Contains(line, "Pixel Size: "):
			raw := strings.TrimSpace(strings.SplitN(line, ": ", 2)[1])
			raw = strings.TrimSuffix(strings.TrimPrefix(raw, "{"), "}")
			parts := strings.Split(raw, ", ")
			if len(parts) == 2 {
				fmt.Sscanf(parts[0], "%d", &w)
				fmt.Sscanf(parts[1], "%d", &h)
			}
		case strings.Contains(line, "Preferred UI Scale: "):
			fmt.Sscanf(strings.TrimSpace(strings.SplitN(line, ": ", 2)[1]), "%d", &scale)
		}
	}
	if scale == 0 {
		return 0, 0, fmt.Errorf("simulator: could not determine UI scale for %s", udid)
	}
	return w / scale, h / scale, nil
}
