package devicecontrol

import (
	"fmt"
	"sort"
	"sync"
)

// Host is the process-wide registry of connected devices, keyed by UDID.
// It guarantees instance identity (Invariant ii): ConnectedDevice(udid)
// always returns the same *Device value as the matching element of
// ConnectedDevices(). Grounded on IosDeviceHost.java (referenced) and the
// teacher's device/dev_common.go getLocalDevices/localDevices pattern,
// adapted from a slice-of-pointers-plus-mutex into a single map plus
// RWMutex, since this host has no Android dual-platform branching to do.
type Host struct {
	mu      sync.RWMutex
	devices map[string]Device
}

var (
	singleton     *Host
	singletonOnce sync.Once
	initialized   bool
	initMu        sync.Mutex
)

// InitRealDeviceHost constructs the process-wide Host from the given
// initial device set. It may be called at most once per process (Invariant
// vi) — a second call panics, matching the source's singleton contract.
func InitRealDeviceHost(initial []Device) *Host {
	initMu.Lock()
	defer initMu.Unlock()
	if initialized {
		panic("devicecontrol: InitRealDeviceHost called more than once")
	}
	initialized = true

	singletonOnce.Do(func() {
		singleton = &Host{devices: map[string]Device{}}
	})
	for _, d := range initial {
		singleton.devices[d.UDID()] = d
	}
	return singleton
}

// HostInstance returns the process-wide Host, panicking if
// InitRealDeviceHost has not yet been called.
func HostInstance() *Host {
	initMu.Lock()
	defer initMu.Unlock()
	if !initialized {
		panic("devicecontrol: host accessed before InitRealDeviceHost")
	}
	return singleton
}

// Register adds or replaces a device in the host, keyed by its UDID.
func (h *Host) Register(d Device) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.devices[d.UDID()] = d
}

// Unregister removes a device (e.g. on disconnect) from the host.
func (h *Host) Unregister(udid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.devices, udid)
}

// ConnectedDevices returns a stable-ordered (by UDID) snapshot of every
// currently registered device.
func (h *Host) ConnectedDevices() []Device {
	h.mu.RLock()
	defer h.mu.RUnlock()

	udids := make([]string, 0, len(h.devices))
	for udid := range h.devices {
		udids = append(udids, udid)
	}
	sort.Strings(udids)

	out := make([]Device, 0, len(udids))
	for _, udid := range udids {
		out = append(out, h.devices[udid])
	}
	return out
}

// ConnectedDevice looks up a single device by UDID, returning an error if
// it is not currently connected.
func (h *Host) ConnectedDevice(udid string) (Device, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	d, ok := h.devices[udid]
	if !ok {
		return nil, fmt.Errorf("devicecontrol: no connected device with UDID %q", udid)
	}
	return d, nil
}
