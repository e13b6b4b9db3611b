package utils

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// QuietGormLogger wraps a GORM logger and drops trace lines for queries
// matching any of the given substrings. The reminder scan runs every
// minute and would otherwise drown the log.
type QuietGormLogger struct {
	logger.Interface
	ignored []string
}

// NewQuietGormLogger creates a filtering logger around l
func NewQuietGormLogger(l logger.Interface, ignored ...string) *QuietGormLogger {
	return &QuietGormLogger{Interface: l, ignored: ignored}
}

// LogMode implements logger.Interface
func (l *QuietGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &QuietGormLogger{Interface: l.Interface.LogMode(level), ignored: l.ignored}
}

// Trace implements logger.Interface
func (l *QuietGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if err == nil {
		sql, _ := fc()
		for _, pattern := range l.ignored {
			if strings.Contains(sql, pattern) {
				return
			}
		}
	}
	l.Interface.Trace(ctx, begin, fc, err)
}
