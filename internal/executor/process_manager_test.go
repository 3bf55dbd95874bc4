package executor

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/t77yq/sonde/internal/probe"
)

type signal struct {
	pid int32
	sig syscall.Signal
}

type fakeTable struct {
	infos   []probe.ProcessInfo
	signals []signal
}

func (f *fakeTable) Snapshot(ctx context.Context) ([]probe.ProcessInfo, error) {
	return f.infos, nil
}

func (f *fakeTable) Signal(ctx context.Context, pid int32, sig syscall.Signal) error {
	f.signals = append(f.signals, signal{pid: pid, sig: sig})
	return nil
}

func TestProcessManagerWaitRunning(t *testing.T) {
	table := &fakeTable{infos: []probe.ProcessInfo{{PID: 100, Name: "nagios"}}}
	pm := NewProcessManager(table, 0, zaptest.NewLogger(t))

	assert.NoError(t, pm.WaitRunning(context.Background(), "/home/merethis/nagios/nagios"))

	err := pm.WaitRunning(context.Background(), "/home/merethis/engine/centengine")
	assert.True(t, errors.Is(err, ErrEngineNotRunning))
}

func TestProcessManagerWaitRunningHonoursSettle(t *testing.T) {
	table := &fakeTable{infos: []probe.ProcessInfo{{PID: 100, Name: "nagios"}}}
	pm := NewProcessManager(table, time.Second, zaptest.NewLogger(t))

	var slept time.Duration
	pm.sleep = func(ctx context.Context, d time.Duration) error {
		slept = d
		return nil
	}

	require.NoError(t, pm.WaitRunning(context.Background(), "nagios"))
	assert.Equal(t, time.Second, slept)
}

func TestProcessManagerTerminate(t *testing.T) {
	table := &fakeTable{infos: []probe.ProcessInfo{
		{PID: 100, Name: "nagiostats"},
		{PID: 101, Name: "nagios"},
		{PID: 102, Name: "nagios"},
	}}
	pm := NewProcessManager(table, 0, zaptest.NewLogger(t))

	found, err := pm.Terminate(context.Background(), "/home/merethis/nagios/nagios")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []signal{{pid: 101, sig: syscall.SIGTERM}}, table.signals)

	found, err = pm.Terminate(context.Background(), "/home/merethis/engine/centengine")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Len(t, table.signals, 1)
}

func TestProcessManagerTerminateAll(t *testing.T) {
	table := &fakeTable{infos: []probe.ProcessInfo{
		{PID: 101, Name: "nagios"},
		{PID: 102, Name: "nagios"},
		{PID: 103, Name: "centengine"},
	}}
	pm := NewProcessManager(table, 0, zaptest.NewLogger(t))

	n, err := pm.TerminateAll(context.Background(), "nagios")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []signal{{101, syscall.SIGTERM}, {102, syscall.SIGTERM}}, table.signals)
}

func TestProcessManagerLaunchReapsProcess(t *testing.T) {
	sleepBin, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available")
	}

	pm := NewProcessManager(&fakeTable{}, 0, zaptest.NewLogger(t))

	pid, err := pm.Launch(sleepBin, "30")
	require.NoError(t, err)
	assert.Contains(t, pm.Running(), pid)

	require.NoError(t, syscall.Kill(pid, syscall.SIGTERM))

	assert.Eventually(t, func() bool {
		return len(pm.Running()) == 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestProcessManagerLaunchMissingBinary(t *testing.T) {
	pm := NewProcessManager(&fakeTable{}, 0, zaptest.NewLogger(t))

	_, err := pm.Launch("/nonexistent/engine")
	assert.Error(t, err)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}
