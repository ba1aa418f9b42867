// Package docker supervises the sidecar containers colocated with a real
// device — the debugserver/web-inspector-proxy auxiliary processes a
// provider host keeps running alongside a tethered device. Grounded on the
// teacher's docker/containers.go (container.Config/HostConfig/nat.PortMap
// construction, ContainerCreate/ContainerStart/ContainerLogs calls), with
// its Appium/Android-emulator specifics replaced by a single auxiliary-
// process container per device.
package docker

import (
	"bytes"
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// NewClient opens a Docker client negotiated against the daemon's API
// version, matching the teacher's router.GetContainerLogs construction.
func NewClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker: create client: %w", err)
	}
	return cli, nil
}

// Sidecar describes one device's auxiliary container: its debugserver/web-
// inspector-proxy processes exposed on a host port.
type Sidecar struct {
	UDID          string
	Image         string
	ContainerPort int
	HostPort      int
}

func containerName(udid string) string { return "ios-sidecar-" + udid }

// StartSidecar creates and starts the sidecar container for udid, binding
// ContainerPort to HostPort on all interfaces — the same PortBindings shape
// as the teacher's iOS/Android container creation, reduced to the one port
// this module's sidecar needs.
func StartSidecar(ctx context.Context, cli *client.Client, s Sidecar) (string, error) {
	port := nat.Port(fmt.Sprintf("%d/tcp", s.ContainerPort))

	cfg := &container.Config{
		Image:        s.Image,
		ExposedPorts: nat.PortSet{port: struct{}{}},
		Env:          []string{"DEVICE_UDID=" + s.UDID},
	}
	hostCfg := &container.HostConfig{
		RestartPolicy: container.RestartPolicy{Name: "on-failure", MaximumRetryCount: 3},
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: fmt.Sprintf("%d", s.HostPort)}},
		},
	}

	resp, err := cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, containerName(s.UDID))
	if err != nil {
		return "", fmt.Errorf("docker: create sidecar for %s: %w", s.UDID, err)
	}
	if err := cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return "", fmt.Errorf("docker: start sidecar for %s: %w", s.UDID, err)
	}
	return resp.ID, nil
}

// StopSidecar stops and removes the sidecar container containerID, tolerating
// "no such container" as a no-op since stopping an already-gone sidecar is
// not an error for the caller's purposes.
func StopSidecar(ctx context.Context, cli *client.Client, containerID string) error {
	if err := cli.ContainerStop(ctx, containerID, nil); err != nil && !client.IsErrNotFound(err) {
		return fmt.Errorf("docker: stop container %s: %w", containerID, err)
	}
	if err := cli.ContainerRemove(ctx, containerID, types.ContainerRemoveOptions{Force: true}); err != nil && !client.IsErrNotFound(err) {
		return fmt.Errorf("docker: remove container %s: %w", containerID, err)
	}
	return nil
}

// ContainerLogs returns a sidecar container's combined stdout and stderr log
// as a string, grounded on the teacher's router.GetContainerLogs handler.
func ContainerLogs(ctx context.Context, cli *client.Client, containerID string) (string, error) {
	out, err := cli.ContainerLogs(ctx, containerID, types.ContainerLogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", fmt.Errorf("docker: logs for %s: %w", containerID, err)
	}
	defer out.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(out); err != nil {
		return "", fmt.Errorf("docker: read logs for %s: %w", containerID, err)
	}
	return buf.String(), nil
}

// FindSidecar looks up udid's sidecar container, running or stopped, if any.
func FindSidecar(ctx context.Context, cli *client.Client, udid string) (types.Container, bool, error) {
	containers, err := cli.ContainerList(ctx, types.ContainerListOptions{All: true})
	if err != nil {
		return types.Container{}, false, fmt.Errorf("docker: list containers: %w", err)
	}
	name := "/" + containerName(udid)
	for _, c := range containers {
		for _, n := range c.Names {
			if n == name {
				return c, true, nil
			}
		}
	}
	return types.Container{}, false, nil
}
