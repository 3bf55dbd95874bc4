package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Probe extracts the health signals of an engine from system state
type Probe interface {
	// Memory returns the memory column of the process running binary
	Memory(ctx context.Context, binary string) (string, error)

	// LoadAverage returns the system load averages
	LoadAverage(ctx context.Context) (LoadAverage, error)

	// Latency returns the average active service latency reported by statsBinary
	Latency(ctx context.Context, statsBinary string) (string, error)
}

// Config defines where the system probe reads its signals from
type Config struct {
	ListCommand []string // process listing command, e.g. ps aux
	MemoryField int      // column index of the memory figure in the listing
	LoadAvgFile string
}

// DefaultConfig reads RSS from ps aux and the Linux loadavg file
var DefaultConfig = Config{
	ListCommand: []string{"ps", "aux"},
	MemoryField: 5,
	LoadAvgFile: "/proc/loadavg",
}

// SystemProbe implements Probe by scraping command output and kernel files
type SystemProbe struct {
	logger   *zap.Logger
	config   Config
	runner   CommandRunner
	readFile func(string) ([]byte, error)
}

// NewSystemProbe creates a new system probe
func NewSystemProbe(config Config, runner CommandRunner, logger *zap.Logger) *SystemProbe {
	return &SystemProbe{
		logger:   logger.Named("probe"),
		config:   config,
		runner:   runner,
		readFile: os.ReadFile,
	}
}

// Memory implements Probe.Memory
func (p *SystemProbe) Memory(ctx context.Context, binary string) (string, error) {
	if len(p.config.ListCommand) == 0 {
		return "", fmt.Errorf("no process listing command configured: %w", ErrNotFound)
	}

	// A failing listing still gets parsed, whatever it printed is all we have.
	out, err := p.runner.Run(ctx, p.config.ListCommand[0], p.config.ListCommand[1:]...)
	if err != nil {
		p.logger.Debug("Process listing failed",
			zap.Strings("command", p.config.ListCommand),
			zap.Error(err))
	}

	return ParseMemory(excludeListing(string(out), p.config.ListCommand), filepath.Base(binary), p.config.MemoryField)
}

// LoadAverage implements Probe.LoadAverage
func (p *SystemProbe) LoadAverage(ctx context.Context) (LoadAverage, error) {
	content, err := p.readFile(p.config.LoadAvgFile)
	if err != nil {
		return LoadAverage{}, fmt.Errorf("failed to read %s: %v: %w", p.config.LoadAvgFile, err, ErrNotFound)
	}
	return ParseLoadAverage(string(content))
}

// Latency implements Probe.Latency
func (p *SystemProbe) Latency(ctx context.Context, statsBinary string) (string, error) {
	out, err := p.runner.Run(ctx, statsBinary)
	if err != nil {
		p.logger.Debug("Stats binary returned an error",
			zap.String("binary", statsBinary),
			zap.Error(err))
	}
	return ParseLatency(string(out))
}

// excludeListing drops the lines describing the listing command itself
func excludeListing(listing string, command []string) string {
	self := strings.Join(command, " ")
	lines := strings.Split(listing, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasSuffix(CollapseSpaces(strings.TrimSpace(line)), " "+self) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
