package probe

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

// procNameLen is the length the kernel truncates process names to
const procNameLen = 15

// ProcessInfo is one entry of a process table snapshot
type ProcessInfo struct {
	PID  int32
	Name string
}

// Predicate selects processes from a snapshot
type Predicate func(ProcessInfo) bool

// ProcessLister lists running processes
type ProcessLister interface {
	Snapshot(ctx context.Context) ([]ProcessInfo, error)
}

// ProcessTable reads the host process table
type ProcessTable struct{}

// NewProcessTable creates a new process table reader
func NewProcessTable() *ProcessTable {
	return &ProcessTable{}
}

// Snapshot returns the processes running right now. Processes that exit while
// being inspected are skipped.
func (t *ProcessTable) Snapshot(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		infos = append(infos, ProcessInfo{PID: p.Pid, Name: name})
	}
	return infos, nil
}

// Signal delivers sig to pid
func (t *ProcessTable) Signal(ctx context.Context, pid int32, sig syscall.Signal) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return fmt.Errorf("process %d: %w", pid, err)
	}
	if err := p.SendSignalWithContext(ctx, sig); err != nil {
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}
	return nil
}

// Find returns the first process of the snapshot matching pred
func Find(ctx context.Context, lister ProcessLister, pred Predicate) (ProcessInfo, bool, error) {
	infos, err := lister.Snapshot(ctx)
	if err != nil {
		return ProcessInfo{}, false, err
	}
	for _, info := range infos {
		if pred(info) {
			return info, true, nil
		}
	}
	return ProcessInfo{}, false, nil
}

// ByName matches processes named basename, never the calling process
func ByName(basename string) Predicate {
	self := int32(os.Getpid())
	truncated := basename
	if len(truncated) > procNameLen {
		truncated = truncated[:procNameLen]
	}

	return func(info ProcessInfo) bool {
		if info.PID == self {
			return false
		}
		return info.Name == basename || info.Name == truncated
	}
}
