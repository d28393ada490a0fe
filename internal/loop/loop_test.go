package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/AgentOS/appmanager/internal/system"
)

func startLoop(t *testing.T) (*Loop, *system.Core) {
	t.Helper()
	core := system.NewCore()
	l, err := New(core, zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		l.Close()
	})
	return l, core
}

func TestTasksRunInOrder(t *testing.T) {
	l, _ := startLoop(t)
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.PostTask(func() { got = append(got, i) })
	}
	require.NoError(t, l.Invoke(context.Background(), func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestTasksPostedFromTasks(t *testing.T) {
	l, _ := startLoop(t)
	ran := make(chan struct{})
	l.PostTask(func() {
		l.PostTask(func() { close(ran) })
	})
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("nested task never ran")
	}
}

func TestAsyncWaitFiresOnLoop(t *testing.T) {
	l, core := startLoop(t)
	a, b, err := core.CreateMessagePipe(nil)
	require.NoError(t, err)

	type outcome struct {
		err   error
		state system.SignalsState
	}
	fired := make(chan outcome, 1)
	var waitErr error
	require.NoError(t, l.Invoke(context.Background(), func() {
		_, waitErr = l.AsyncWait(b, system.SignalReadable, func(err error, state system.SignalsState) {
			fired <- outcome{err, state}
		})
	}))
	require.NoError(t, waitErr)

	require.NoError(t, core.WriteMessage(a, []byte("x"), nil, system.WriteMessageFlagNone))
	select {
	case o := <-fired:
		assert.NoError(t, o.err)
		assert.NotZero(t, o.state.Satisfied&system.SignalReadable)
	case <-time.After(2 * time.Second):
		t.Fatal("async wait never fired")
	}
	assert.Equal(t, 0, l.Pending())
}

func TestAsyncWaitReportsPeerClosure(t *testing.T) {
	l, core := startLoop(t)
	a, b, _ := core.CreateMessagePipe(nil)

	fired := make(chan error, 1)
	_, err := l.AsyncWait(b, system.SignalReadable, func(err error, _ system.SignalsState) { fired <- err })
	require.NoError(t, err)

	require.NoError(t, core.Close(a))
	select {
	case err := <-fired:
		assert.ErrorIs(t, err, system.ErrCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("async wait never fired")
	}
}

func TestCancelledWaitDoesNotFire(t *testing.T) {
	l, core := startLoop(t)
	a, b, _ := core.CreateMessagePipe(nil)

	fired := make(chan struct{}, 1)
	var waitErr error
	require.NoError(t, l.Invoke(context.Background(), func() {
		var w *Waiter
		w, waitErr = l.AsyncWait(b, system.SignalReadable, func(error, system.SignalsState) { fired <- struct{}{} })
		w.Cancel()
		w.Cancel()
	}))
	require.NoError(t, waitErr)

	require.NoError(t, core.WriteMessage(a, []byte("x"), nil, system.WriteMessageFlagNone))
	require.NoError(t, l.Invoke(context.Background(), func() {}))
	select {
	case <-fired:
		t.Fatal("cancelled wait fired")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 0, l.Pending())
}

func TestAsyncWaitInvalidHandle(t *testing.T) {
	l, _ := startLoop(t)
	_, err := l.AsyncWait(system.Handle(4242), system.SignalReadable, func(error, system.SignalsState) {})
	assert.ErrorIs(t, err, system.ErrInvalidArgument)
	assert.Equal(t, 0, l.Pending())
}

func TestQuitStopsRunAndInvoke(t *testing.T) {
	core := system.NewCore()
	l, err := New(core, nil)
	require.NoError(t, err)
	defer l.Close()

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()
	l.PostTask(l.Quit)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
	assert.ErrorIs(t, l.Invoke(context.Background(), func() {}), ErrStopped)
}
