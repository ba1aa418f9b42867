package debugserver

import (
	"context"
	"encoding/hex"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeDevice plays the device side of the dialogue: it replies "OK" to
// QStartNoAckMode/QEnvironmentHexEncoded/launch/Hc-1, "OK" to
// qLaunchSuccess, then on "c" starts emitting scripted packets.
func fakeDevice(t *testing.T, peer *conn, scriptedAfterContinue []string) {
	t.Helper()
	for {
		pkt, err := peer.recv()
		if err != nil {
			return
		}
		switch {
		case pkt == "QStartNoAckMode":
			require.NoError(t, peer.send("OK"))
		case pkt == "qLaunchSuccess":
			require.NoError(t, peer.send("OK"))
		case pkt == "c":
			for _, p := range scriptedAfterContinue {
				require.NoError(t, peer.send(p))
			}
			return
		default:
			require.NoError(t, peer.send("OK"))
		}
	}
}

func TestLaunchAndAwaitCapturesStdoutAndExitCode(t *testing.T) {
	clientEnd, deviceEnd := net.Pipe()
	defer deviceEnd.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fakeDevice(t, newConn(deviceEnd), []string{
			"O" + hex.EncodeToString([]byte("hello\n")),
			"W00",
		})
	}()

	proc, err := Launch(context.Background(), clientEnd, "/path/to/app", nil, map[string]string{"A": "1"})
	require.NoError(t, err)

	out, err := proc.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "hello\n", out)
	<-done
}

func TestLaunchAwaitReportsNonZeroExitCode(t *testing.T) {
	clientEnd, deviceEnd := net.Pipe()
	defer deviceEnd.Close()

	go fakeDevice(t, newConn(deviceEnd), []string{"W01"})

	proc, err := Launch(context.Background(), clientEnd, "/path/to/app", nil, nil)
	require.NoError(t, err)

	_, err = proc.Await(context.Background())
	require.Error(t, err)
}

func TestLaunchAwaitReportsCrash(t *testing.T) {
	clientEnd, deviceEnd := net.Pipe()
	defer deviceEnd.Close()

	go fakeDevice(t, newConn(deviceEnd), []string{"T05"})

	proc, err := Launch(context.Background(), clientEnd, "/path/to/app", nil, nil)
	require.NoError(t, err)

	_, err = proc.Await(context.Background())
	require.ErrorContains(t, err, "crashed")
}

func TestOutputReaderStreamsConcurrentlyWithAwait(t *testing.T) {
	clientEnd, deviceEnd := net.Pipe()
	defer deviceEnd.Close()

	go fakeDevice(t, newConn(deviceEnd), []string{
		"O" + hex.EncodeToString([]byte("line1")),
		"W00",
	})

	proc, err := Launch(context.Background(), clientEnd, "/path/to/app", nil, nil)
	require.NoError(t, err)

	reader := proc.OutputReader()
	buf := make([]byte, 5)
	n, err := reader.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "line1", string(buf[:n]))

	_, err = proc.Await(context.Background())
	require.NoError(t, err)
}

func TestLaunchPacketEncodesArgumentsHexWithIndices(t *testing.T) {
	got := launchPacket("/bin/app", []string{"--flag"})
	want := "A" + "16,0," + strings.ToUpper(hex.EncodeToString([]byte("/bin/app"))) + "," + "12,1," + strings.ToUpper(hex.EncodeToString([]byte("--flag")))
	require.Equal(t, want, got)
}

func TestLaunchFailsFastOnContextDeadline(t *testing.T) {
	clientEnd, deviceEnd := net.Pipe()
	defer clientEnd.Close()
	defer deviceEnd.Close()
	// No fake device reader: the dialogue's first request blocks forever,
	// so a short context deadline must still return promptly.

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Launch(ctx, clientEnd, "/path/to/app", nil, nil)
	require.Error(t, err)
}
