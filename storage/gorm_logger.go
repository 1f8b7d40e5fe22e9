package storage

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// gormLogAdapter routes gorm's printf-style output into the application
// logger. Lines gorm prefixes with an error or slow-query marker are raised
// to warn.
type gormLogAdapter struct {
	logger *log.Logger
}

func newGormLogger(logger *log.Logger) *gormLogAdapter {
	return &gormLogAdapter{logger: logger}
}

func (g *gormLogAdapter) Printf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	if strings.Contains(msg, "SLOW SQL") || strings.Contains(msg, "error") {
		g.logger.Warn(msg)
		return
	}
	g.logger.Debug(msg)
}
