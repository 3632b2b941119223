package logger

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger adapts logrus to gorm's logger interface so SQL logging goes
// through the same sink as the rest of the application.
type GormLogger struct {
	logger *logrus.Logger
}

func NewGormLogger() *GormLogger {
	return &GormLogger{logger: logrus.StandardLogger()}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *l
	return &newLogger
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.logger.WithContext(ctx).Infof(msg, data...)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.logger.WithContext(ctx).Warnf(msg, data...)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.logger.WithContext(ctx).Errorf(msg, data...)
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := logrus.Fields{
		"elapsed": elapsed,
		"rows":    rows,
		"sql":     sql,
	}
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.WithContext(ctx).WithFields(fields).Error(err)
	case elapsed > 200*time.Millisecond:
		l.logger.WithContext(ctx).WithFields(fields).Warn("slow SQL >= 200ms")
	default:
		l.logger.WithContext(ctx).WithFields(fields).Debug("SQL")
	}
}
