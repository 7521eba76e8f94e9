package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingReminder struct {
	calls atomic.Int32
	err   error
}

func (r *countingReminder) SendOverdueReminders(context.Context) (int, error) {
	r.calls.Add(1)
	return 1, r.err
}

func TestOverdueWorker_ScansUntilStopped(t *testing.T) {
	r := &countingReminder{}
	w := NewOverdueWorker(r, 5*time.Millisecond)
	w.Start(context.Background())

	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, time.Millisecond)
	w.Stop()

	stopped := r.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, r.calls.Load())
}

func TestOverdueWorker_KeepsRunningAfterErrors(t *testing.T) {
	r := &countingReminder{err: errors.New("database is down")}
	w := NewOverdueWorker(r, 5*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestOverdueWorker_ZeroIntervalDisables(t *testing.T) {
	r := &countingReminder{}
	w := NewOverdueWorker(r, 0)
	w.Start(context.Background())
	w.Stop()

	assert.Zero(t, r.calls.Load())
}
