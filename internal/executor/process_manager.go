package executor

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/t77yq/sonde/internal/probe"
)

// ProcessTable is the view of the host process table the manager acts on
type ProcessTable interface {
	probe.ProcessLister
	Signal(ctx context.Context, pid int32, sig syscall.Signal) error
}

// ProcessManager launches engines and terminates them by name
type ProcessManager struct {
	logger    *zap.Logger
	table     ProcessTable
	settle    time.Duration
	sleep     Sleeper
	mu        sync.Mutex
	processes map[int]*exec.Cmd
}

// NewProcessManager creates a new process manager
func NewProcessManager(table ProcessTable, settle time.Duration, logger *zap.Logger) *ProcessManager {
	return &ProcessManager{
		logger:    logger.Named("process-manager"),
		table:     table,
		settle:    settle,
		sleep:     SleepContext,
		processes: make(map[int]*exec.Cmd),
	}
}

// Launch starts binary in its own process group with its output discarded.
// The process outlives the call; it is reaped in the background.
func (pm *ProcessManager) Launch(binary string, args ...string) (int, error) {
	cmd := exec.Command(binary, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", binary, err)
	}

	pid := cmd.Process.Pid
	pm.mu.Lock()
	pm.processes[pid] = cmd
	pm.mu.Unlock()

	pm.logger.Info("Process started",
		zap.String("binary", binary),
		zap.Int("pid", pid))

	go pm.reap(pid, cmd)

	return pid, nil
}

// reap waits for a launched process so it does not linger as a zombie
func (pm *ProcessManager) reap(pid int, cmd *exec.Cmd) {
	err := cmd.Wait()

	pm.mu.Lock()
	delete(pm.processes, pid)
	pm.mu.Unlock()

	pm.logger.Info("Process exited",
		zap.String("binary", cmd.Path),
		zap.Int("pid", pid),
		zap.Error(err))
}

// WaitRunning waits the settle interval then checks that binary is in the process table
func (pm *ProcessManager) WaitRunning(ctx context.Context, binary string) error {
	if err := pm.sleep(ctx, pm.settle); err != nil {
		return err
	}

	name := filepath.Base(binary)
	_, ok, err := probe.Find(ctx, pm.table, probe.ByName(name))
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrEngineNotRunning)
	}
	return nil
}

// Terminate sends SIGTERM to the first process named like binary.
// It reports whether a process was found; no match is not an error.
func (pm *ProcessManager) Terminate(ctx context.Context, binary string) (bool, error) {
	name := filepath.Base(binary)
	info, ok, err := probe.Find(ctx, pm.table, probe.ByName(name))
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", name, err)
	}
	if !ok {
		pm.logger.Debug("No process to terminate", zap.String("name", name))
		return false, nil
	}

	if err := pm.table.Signal(ctx, info.PID, syscall.SIGTERM); err != nil {
		return true, err
	}

	pm.logger.Info("Process terminated",
		zap.String("name", name),
		zap.Int32("pid", info.PID))
	return true, nil
}

// TerminateAll sends SIGTERM to every process named like binary and returns how many were signalled
func (pm *ProcessManager) TerminateAll(ctx context.Context, binary string) (int, error) {
	name := filepath.Base(binary)
	infos, err := pm.table.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list processes: %w", err)
	}

	match := probe.ByName(name)
	signalled := 0
	for _, info := range infos {
		if !match(info) {
			continue
		}
		if err := pm.table.Signal(ctx, info.PID, syscall.SIGTERM); err != nil {
			pm.logger.Warn("Failed to terminate process",
				zap.String("name", name),
				zap.Int32("pid", info.PID),
				zap.Error(err))
			continue
		}
		signalled++
	}
	return signalled, nil
}

// Running returns the sorted PIDs launched by this manager that have not exited yet
func (pm *ProcessManager) Running() []int {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pids := make([]int, 0, len(pm.processes))
	for pid := range pm.processes {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext implements Sleeper with a timer
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
