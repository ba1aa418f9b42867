package realdevice

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func TestIsPNGDetectsMagicBytes(t *testing.T) {
	require.True(t, isPNG(pngMagic))
	require.False(t, isPNG([]byte("not a png")))
	require.False(t, isPNG(pngMagic[:4]))
}

func TestConvertTIFFToPNGRoundTrips(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	img.Set(1, 1, color.Black)

	var tiffBuf bytes.Buffer
	require.NoError(t, tiff.Encode(&tiffBuf, img, nil))

	pngBytes, err := convertTIFFToPNG(tiffBuf.Bytes())
	require.NoError(t, err)
	require.True(t, isPNG(pngBytes))
}

func TestNewConstructsUnsupervisedDevice(t *testing.T) {
	d := New("udid-1", nil, "/dev-images")
	require.Equal(t, "udid-1", d.UDID())
	require.False(t, d.IsRestarting())
	require.False(t, d.cfgutil.isSupervised())
}
