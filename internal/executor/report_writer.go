package executor

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/t77yq/sonde/internal/model"
)

// ReportWriter appends samples to per-round report files
type ReportWriter struct {
	logger *zap.Logger
}

// NewReportWriter creates a new report writer
func NewReportWriter(logger *zap.Logger) *ReportWriter {
	return &ReportWriter{
		logger: logger.Named("report-writer"),
	}
}

// Path returns the report file of a round inside dir
func (w *ReportWriter) Path(dir string, round model.Round) string {
	return filepath.Join(dir, round.ReportName)
}

// Prepare makes sure the report directory exists
func (w *ReportWriter) Prepare(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	return nil
}

// Append writes one sample line to the end of the report file.
// The file is opened and closed for every line so the report is never buffered.
func (w *ReportWriter) Append(path string, sample model.RoundSample) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open report file: %w", err)
	}

	if _, err := file.WriteString(sample.Line()); err != nil {
		file.Close()
		return fmt.Errorf("failed to write report line: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}

	w.logger.Debug("Report line written",
		zap.String("path", path),
		zap.Int("check_count", sample.CheckCount))
	return nil
}
