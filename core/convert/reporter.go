package convert

import "log/slog"

// LogReporter reports recovered failures as slog warnings.
type LogReporter struct {
	Logger *slog.Logger
}

// Report implements core.ErrorReporter.
func (r LogReporter) Report(category, message string, err error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn(message, slog.String("category", category), slog.Any("error", err))
}
