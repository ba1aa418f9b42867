package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoSucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), New(), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), New().WithMaxAttempts(5), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("not yet")
		}
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.Equal(t, 3, calls)
}

func TestDoSingleAttemptNoDelay(t *testing.T) {
	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), New().WithMaxAttempts(1).WithDelay(time.Hour), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.Less(t, time.Since(start), time.Second)
}

func TestDoExhaustsAttemptsAndReportsSuppressed(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), New().WithMaxAttempts(3), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	require.Error(t, err)
	require.Equal(t, 3, calls)
	var f *Failure
	require.ErrorAs(t, err, &f)
	require.Len(t, f.Suppressed, 2)
}

func TestHandlerReturningFailStopsImmediately(t *testing.T) {
	calls := 0
	r := New().WithMaxAttempts(5).WithExceptionHandler(func(error) Action { return Fail })
	_, err := Do(context.Background(), r, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("fatal")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestHandlerFailOnFirstErrorLeavesNothingSuppressed(t *testing.T) {
	shared := errors.New("shared")
	r := New().WithMaxAttempts(2).WithExceptionHandler(func(err error) Action {
		if err == shared {
			return Fail
		}
		return Retry
	})
	_, err := Do(context.Background(), r, func(context.Context) (int, error) {
		return 0, shared
	})
	var f *Failure
	require.ErrorAs(t, err, &f)
	require.Same(t, shared, f.Primary)
	require.Empty(t, f.Suppressed)
}

func TestDelayedFirstAttemptActuallyDelays(t *testing.T) {
	calls := 0
	start := time.Now()
	r := New().WithMaxAttempts(1).WithDelay(30 * time.Millisecond).WithDelayedFirstAttempt()
	_, _ = Do(context.Background(), r, func(context.Context) (int, error) {
		calls++
		return 0, nil
	})
	require.Equal(t, 1, calls)
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestContextCancelDuringSleepFailsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	r := New().WithMaxAttempts(5).WithDelay(time.Hour)
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Do(ctx, r, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
	var f *Failure
	require.ErrorAs(t, err, &f)
	require.Len(t, f.Suppressed, 1)
}

func TestPrimaryIsAlwaysSetEvenOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New().WithMaxAttempts(5).WithDelay(time.Hour).WithDelayedFirstAttempt()
	_, err := Do(ctx, r, func(context.Context) (int, error) {
		t.Fatal("task should never run: cancellation happens in the pre-attempt delay")
		return 0, nil
	})
	require.Error(t, err)
	var f *Failure
	require.ErrorAs(t, err, &f)
	require.NotNil(t, f.Primary)
}

func TestMaxAttemptsMustBePositive(t *testing.T) {
	require.Panics(t, func() { New().WithMaxAttempts(0) })
}
