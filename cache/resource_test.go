package cache

import (
	"embed"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

//go:embed testdata
var testResourceFS embed.FS

func TestNamedInternsAcrossCalls(t *testing.T) {
	r1 := Named("greeting", testResourceFS, "testdata/greeting.txt")
	r2 := Named("greeting", testResourceFS, "testdata/greeting.txt")
	require.Same(t, r1, r2)
}

func TestPathExtractsContentExactlyOnce(t *testing.T) {
	r := Named("unique-greeting-resource", testResourceFS, "testdata/greeting.txt")
	p1, err := r.Path()
	require.NoError(t, err)
	p2, err := r.Path()
	require.NoError(t, err)
	require.Equal(t, p1, p2)

	data, err := os.ReadFile(p1)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(data))
}
