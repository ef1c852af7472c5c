package client

import (
	"fmt"
	"log/slog"
	"strings"
)

// restyLogger routes resty's internal messages through slog at debug level so
// they never interleave with command output.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Debug("resty error", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, v...))))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Debug("resty warning", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, v...))))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug("resty debug", slog.String("detail", strings.TrimSpace(fmt.Sprintf(format, v...))))
}
