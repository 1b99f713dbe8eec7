package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRunner_Every(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(ctx, nil)

	var calls atomic.Int32
	r.Every(5*time.Millisecond, "tick_test", func(context.Context) error {
		calls.Add(1)
		return nil
	})

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	r.Wait()

	stopped := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())
}

func TestRunner_ErrorsAndPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := New(ctx, nil)

	r.run("failing_test", func(context.Context) error { return errors.New("boom") })
	assert.NotPanics(t, func() {
		r.run("panicking_test", func(context.Context) error { panic("oops") })
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(jobErrors.WithLabelValues("failing_test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(jobErrors.WithLabelValues("panicking_test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(jobRuns.WithLabelValues("panicking_test")))
}
