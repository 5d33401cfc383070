package orm

import (
	"context"
	"errors"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// gormLogger writes GORM output to a kratos logger.
// Only failed statements and statements slower than slow are traced.
type gormLogger struct {
	log   *log.Helper
	level logger.LogLevel
	slow  time.Duration
}

// NewLogger adapts a kratos logger to GORM's logger interface.
func NewLogger(l log.Logger, slow time.Duration) logger.Interface {
	if slow <= 0 {
		slow = defaultSlowThreshold
	}
	return &gormLogger{
		log:   log.NewHelper(log.With(l, "module", "gorm")),
		level: logger.Warn,
		slow:  slow,
	}
}

func (g *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

func (g *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= logger.Info {
		g.log.WithContext(ctx).Infof(msg, args...)
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= logger.Warn {
		g.log.WithContext(ctx).Warnf(msg, args...)
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= logger.Error {
		g.log.WithContext(ctx).Errorf(msg, args...)
	}
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= logger.Error:
		sql, rows := fc()
		g.log.WithContext(ctx).Errorw("msg", "sql failed", "error", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case elapsed > g.slow && g.level >= logger.Warn:
		sql, rows := fc()
		g.log.WithContext(ctx).Warnw("msg", "slow sql", "elapsed", elapsed, "rows", rows, "sql", sql)
	case g.level >= logger.Info:
		sql, rows := fc()
		g.log.WithContext(ctx).Debugw("msg", "sql", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
