package realdevice

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/shamanec/ios-device-control/command"
	"github.com/shamanec/ios-device-control/retry"
)

// errNoDeveloperImageMounted signals that a command process's first line
// of output began with "Could not start", the source's heuristic for "the
// developer disk image required by this service is not mounted".
var errNoDeveloperImageMounted = errors.New("cannot run apps without mounting a developer image")

// errDebugServerWedged signals that an app-runner process produced no
// stderr output at all within the wait window — a sign LLDB itself is
// stuck and only a device restart clears it.
var errDebugServerWedged = errors.New("no apprunner output, is LLDB wedged?")

// retryWithDeveloperImageMount starts cmd, inspecting its first output
// line (stdout if errorToStdout, else stderr — idevicescreenshot reports
// this failure on stdout, idevice-app-runner on stderr) for the "developer
// image not mounted" signature. On that signature it mounts the image and
// retries starting the whole command from scratch, up to 10 attempts, 3
// seconds apart — mounting is comparatively rare and slow, so we would
// rather over-wait than hammer the device. Grounded on
// RealDeviceImpl.java's retryWithDeveloperImageMount.
func (d *Device) retryWithDeveloperImageMount(ctx context.Context, errorToStdout bool, cmd command.Command) (*command.Process, error) {
	r := retry.New().WithMaxAttempts(10).WithDelay(3 * time.Second).WithExceptionHandler(func(err error) retry.Action {
		if !errors.Is(err, errNoDeveloperImageMounted) {
			return retry.Fail
		}
		if mountErr := d.mountDeveloperImage(); mountErr != nil {
			return retry.Fail
		}
		return retry.Retry
	})

	return retry.Do(ctx, r, func(ctx context.Context) (*command.Process, error) {
		proc, err := command.Start(cmd)
		if err != nil {
			return nil, d.wrapErr(err, "start command")
		}

		var reader io.Reader
		if errorToStdout {
			reader = proc.StdoutReader()
		} else {
			reader = proc.StderrReader()
		}
		firstLine, _ := bufio.NewReader(reader).ReadString('\n')
		if strings.HasPrefix(firstLine, "Could not start") {
			_, _ = proc.Await(ctx)
			return nil, errNoDeveloperImageMounted
		}
		return proc, nil
	})
}

func (d *Device) mountDeveloperImage() error {
	version, err := d.Version()
	if err != nil {
		return err
	}
	image, err := d.images.FindForVersion(version.ProductVersion)
	if err != nil {
		return d.wrapErr(err, "find developer disk image")
	}
	// ideviceimagemounter sometimes reports exit code 255 even on success.
	cmd := d.idevice.imagemounter(image.ImagePath, image.SignaturePath).WithSuccessExitCodes(0, 255)
	_, err = d.execIdevice(cmd)
	return d.wrapErr(err, "mount developer image")
}

// startApprunner retries starting the apprunner up to twice: once to catch
// a wedged debug server (no stderr output within the wait window), which
// triggers a device restart before the second attempt.
func (d *Device) startApprunner(ctx context.Context, apprunnerArgs []string) (*command.Process, error) {
	cmd := d.idevice.apprunner(apprunnerArgs...)

	r := retry.New().WithMaxAttempts(2).WithExceptionHandler(func(err error) retry.Action {
		if !errors.Is(err, errDebugServerWedged) {
			return retry.Fail
		}
		if restartErr := d.Restart(); restartErr != nil {
			return retry.Fail
		}
		return retry.Retry
	})

	return retry.Do(ctx, r, func(ctx context.Context) (*command.Process, error) {
		proc, err := d.retryWithDeveloperImageMount(ctx, false, cmd)
		if err != nil {
			return nil, err
		}
		if err := waitForStderrOutput(proc); err != nil {
			return nil, err
		}
		return proc, nil
	})
}

// waitForStderrOutput blocks up to 5 seconds for the apprunner process to
// produce its first byte of stderr. A Go blocking read against a deadline
// takes the place of the source's poll-`available()`-every-second loop,
// which has no equivalent on an io.Reader.
func waitForStderrOutput(proc *command.Process) error {
	gotByte := make(chan struct{}, 1)
	go func() {
		buf := make([]byte, 1)
		if n, _ := proc.StderrReader().Read(buf); n > 0 {
			gotByte <- struct{}{}
		}
	}()

	select {
	case <-gotByte:
		return nil
	case <-time.After(5 * time.Second):
		_ = proc.Kill()
		return errDebugServerWedged
	}
}
