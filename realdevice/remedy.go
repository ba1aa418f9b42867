package realdevice

import (
	"regexp"
	"strings"

	"github.com/shamanec/ios-device-control/devicecontrol"
)

// lastLinePatternToRemedy maps a crash signature found on an app-runner
// process's last stderr line to a suggested recovery action. Transcribed
// verbatim (pattern strings, substring-find semantics, first match wins)
// from real/RealAppProcess.java's LAST_LINE_PATTERN_TO_REMEDY.
var lastLinePatternToRemedy = []struct {
	pattern *regexp.Regexp
	remedy  devicecontrol.Remedy
}{
	// http://stackoverflow.com/questions/26287365
	{regexp.MustCompile(`\$E4294967295#`), devicecontrol.ReinstallApp},
	// https://developer.apple.com/library/ios/qa/qa1682/_index.html
	{regexp.MustCompile(`\$Efailed to get the task for process.*#`), devicecontrol.ReinstallApp},
	// http://stackoverflow.com/questions/10167442
	{regexp.MustCompile(`\$ENo such file or directory.*#`), devicecontrol.ReinstallApp},
	// http://stackoverflow.com/questions/10833151
	{regexp.MustCompile(`\$ENotFound#`), devicecontrol.ReinstallApp},
	// http://stackoverflow.com/questions/26032085
	{regexp.MustCompile(`\$Etimed out trying to launch app#`), devicecontrol.RestartDevice},
	{regexp.MustCompile(`Unknown APPID`), devicecontrol.ReinstallApp},
}

// remedyForStderr scans an app-runner process's stderr for a known crash
// signature on its last non-empty line and returns the first matching
// remedy in table order.
func remedyForStderr(stderr string) devicecontrol.Remedy {
	stderr = strings.TrimSpace(stderr)
	lastLine := stderr
	if idx := strings.LastIndex(stderr, "\n"); idx >= 0 {
		lastLine = stderr[idx:]
	}
	for _, e := range lastLinePatternToRemedy {
		if e.pattern.MatchString(lastLine) {
			return e.remedy
		}
	}
	return devicecontrol.NoRemedy
}
