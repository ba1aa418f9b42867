package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoRunsProducerOnce(t *testing.T) {
	calls := 0
	m := New(func() (int, error) {
		calls++
		return 5, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Get()
			require.NoError(t, err)
			require.Equal(t, 5, v)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, calls)
}

func TestMemoCachesFailure(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	m := New(func() (int, error) {
		calls++
		return 0, boom
	})

	_, err1 := m.Get()
	_, err2 := m.Get()
	require.Same(t, boom, err1)
	require.Same(t, boom, err2)
	require.Equal(t, 1, calls)
}
