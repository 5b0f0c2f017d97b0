package gorm

import (
	"fmt"
	"strings"
	"time"

	config "github.com/tigerroll/idbatch/pkg/batch/core/config"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/logger"

	gorm_logger "gorm.io/gorm/logger"
)

// NewGormLogger creates a gorm logger for the application log level.
// Statements are traced only at DEBUG and TRACE; otherwise only errors surface.
func NewGormLogger(level string) gorm_logger.Interface {
	var gormLevel gorm_logger.LogLevel
	switch config.LogLevel(strings.ToUpper(level)) {
	case config.LogLevelTrace, config.LogLevelDebug:
		gormLevel = gorm_logger.Info
	case config.LogLevelInfo, config.LogLevelWarn:
		gormLevel = gorm_logger.Warn
	case config.LogLevelError, config.LogLevelFatal:
		gormLevel = gorm_logger.Error
	default:
		gormLevel = gorm_logger.Silent
	}

	return gorm_logger.New(
		NewGormWriter(),
		gorm_logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// GormWriter redirects GORM log output to the application logger.
type GormWriter struct{}

// NewGormWriter creates a new instance of GormWriter.
func NewGormWriter() *GormWriter {
	return &GormWriter{}
}

// Printf implements the gorm logger Writer interface.
// SQL traces go to DEBUG, everything else (slow queries, errors) to WARN.
func (w *GormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	if isStatement(msg) {
		logger.Debugf("[GORM] %s", msg)
		return
	}
	logger.Warnf("[GORM] %s", msg)
}

func isStatement(msg string) bool {
	if !strings.Contains(msg, "[") || !strings.Contains(msg, "]") || strings.Contains(msg, "SLOW SQL") {
		return false
	}
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE"} {
		if strings.Contains(msg, verb) {
			return true
		}
	}
	return false
}
