package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/voiceid/logger"
)

var gormLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
}

// queryLog routes gorm output into the component logger. Missing rows are
// a normal speaker lookup outcome and are not reported as errors.
type queryLog struct {
	log   *logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

func newQueryLog(log *logger.Logger, level string, slow time.Duration) gormlogger.Interface {
	lvl, ok := gormLevels[strings.ToLower(level)]
	if !ok {
		lvl = gormlogger.Warn
	}
	return queryLog{log: log.WithComponent("gorm"), level: lvl, slow: slow}
}

func (q queryLog) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	q.level = level
	return q
}

func (q queryLog) Info(_ context.Context, msg string, args ...interface{}) {
	if q.level >= gormlogger.Info {
		q.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (q queryLog) Warn(_ context.Context, msg string, args ...interface{}) {
	if q.level >= gormlogger.Warn {
		q.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (q queryLog) Error(_ context.Context, msg string, args ...interface{}) {
	if q.level >= gormlogger.Error {
		q.log.Error(fmt.Sprintf(msg, args...))
	}
}

func (q queryLog) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := q.slow > 0 && elapsed > q.slow
	if !failed && !slow && q.level < gormlogger.Info {
		return
	}

	sql, rows := fc()
	fields := map[string]interface{}{
		"sql":                sql,
		"rows":               rows,
		logger.FieldDuration: elapsed.Milliseconds(),
	}
	switch {
	case failed:
		fields[logger.FieldError] = err.Error()
		q.log.Error("Query failed", fields)
	case slow:
		q.log.Warn("Slow query", fields)
	default:
		q.log.Debug("Query", fields)
	}
}
