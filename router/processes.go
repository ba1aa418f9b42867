package router

import (
	"sync"

	"github.com/shamanec/ios-device-control/devicecontrol"
)

// runningProcesses tracks the most recently launched AppProcess per device,
// so /logs/stream has something to read from without RunApplication having
// to block on it.
var (
	runningProcesses   = map[string]devicecontrol.AppProcess{}
	runningProcessesMu sync.Mutex
)

func trackProcess(udid string, proc devicecontrol.AppProcess) {
	runningProcessesMu.Lock()
	defer runningProcessesMu.Unlock()
	runningProcesses[udid] = proc
}

func processFor(udid string) (devicecontrol.AppProcess, bool) {
	runningProcessesMu.Lock()
	defer runningProcessesMu.Unlock()
	proc, ok := runningProcesses[udid]
	return proc, ok
}
