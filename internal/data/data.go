package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/orphancare/charity-service/internal/biz"
	"github.com/orphancare/charity-service/internal/conf"
	"github.com/orphancare/charity-service/internal/metrics"
	"github.com/orphancare/charity-service/pkg/orm"
	"github.com/orphancare/charity-service/pkg/txretry"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData, NewTransaction,
	NewOrphanRepo, NewSponsorshipRepo,
	NewSponsorshipCache, NewEventPublisher,
)

// contextTxKey is the context key for storing a GORM transaction.
type contextTxKey struct{}

// Data is the data layer dependency container.
type Data struct {
	db      *gorm.DB
	rdb     *redis.Client
	txOpts  biz.TxOptions
	metrics *metrics.Metrics
	log     *log.Helper
}

// DB returns a context-aware *gorm.DB.
// If a transaction was started via InTx, returns the transaction;
// otherwise returns the default database session with the given context.
func (d *Data) DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(contextTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return d.db.WithContext(ctx)
}

// InTx executes fn within a database transaction.
// The transaction is stored in context so that all repos using DB(ctx) share it.
// A call made while a transaction is already in ctx joins it.
//
// When fn or the commit fails with a transient error, the transaction is
// rolled back and fn runs again on a new one, up to the attempts of the
// retry policy. Any other error is returned unchanged.
func (d *Data) InTx(ctx context.Context, fn func(ctx context.Context) error, opts ...biz.TxOption) error {
	if _, ok := ctx.Value(contextTxKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	o := biz.NewTxOptions(d.txOpts, opts...)
	return o.Retry.Do(ctx, func(ctx context.Context) error {
		return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, contextTxKey{}, tx))
		}, &sql.TxOptions{Isolation: o.Isolation})
	}, txretry.OnRetry(func(attempt int, delay time.Duration, err error) {
		d.metrics.TxRetried()
		d.log.WithContext(ctx).Warnf("transaction attempt %d failed, retrying in %s: %v", attempt+1, delay, err)
	}))
}

// NewTransaction returns a biz.Transaction backed by Data.
func NewTransaction(d *Data) biz.Transaction {
	return d
}

// Redis returns the redis.Client instance.
func (d *Data) Redis() *redis.Client {
	return d.rdb
}

// NewData creates a new Data instance and returns a cleanup function.
func NewData(c *conf.Data, m *metrics.Metrics, logger log.Logger) (*Data, func(), error) {
	logHelper := log.NewHelper(log.With(logger, "module", "data"))

	txOpts, err := newTxOptions(c.Transaction)
	if err != nil {
		return nil, nil, err
	}

	dbConf := &orm.DBConfig{
		Username:        c.Database.Username,
		Password:        c.Database.Password,
		Host:            c.Database.Host,
		Port:            fmt.Sprintf("%d", c.Database.Port),
		DBName:          c.Database.DBName,
		MaxIdleConns:    int(c.Database.MaxIdleConns),
		MaxOpenConns:    int(c.Database.MaxOpenConns),
		DBCharset:       c.Database.DBCharset,
		ConnMaxLifetime: c.Database.ConnMaxLifetime.AsDuration(),
		ConnMaxIdleTime: c.Database.ConnMaxIdleTime.AsDuration(),
		Logger:          logger,
		SlowThreshold:   c.Database.SlowThreshold.AsDuration(),
	}

	ormDB, err := orm.MakeDB(dbConf)
	if err != nil {
		return nil, nil, err
	}

	if c.Database.AutoMigrate {
		if err := ormDB.Migrate(Models()...); err != nil {
			logHelper.Errorf("failed to migrate schema: %v", err)
			_ = ormDB.Close()
			return nil, nil, err
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Redis.Addr,
		Password:     c.Redis.Password,
		DB:           int(c.Redis.DB),
		DialTimeout:  c.Redis.DialTimeout.AsDuration(),
		WriteTimeout: c.Redis.WriteTimeout.AsDuration(),
		ReadTimeout:  c.Redis.ReadTimeout.AsDuration(),
	})

	// add redis ping check
	pingTimeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingTimeoutCtx).Result(); err != nil {
		logHelper.Errorf("failed to ping redis: %v", err)
		_ = ormDB.Close()
		return nil, nil, err
	}

	cleanup := func() {
		logHelper.Info("closing the data resources")

		if err := rdb.Close(); err != nil {
			logHelper.Errorf("failed to close redis data resources: %v", err)
		}

		if err := ormDB.Close(); err != nil {
			logHelper.Errorf("failed to close database data resources: %v", err)
		}
	}

	return &Data{
		db:      ormDB.GetDB(),
		rdb:     rdb,
		txOpts:  txOpts,
		metrics: m,
		log:     logHelper,
	}, cleanup, nil
}

// newTxOptions overlays the configured transaction settings on the defaults.
// Errors are classified by MySQL error number as well as by message.
func newTxOptions(c *conf.Transaction) (biz.TxOptions, error) {
	o := biz.DefaultTxOptions()
	o.Retry.Classifier = txretry.MySQLClassifier()
	if c == nil {
		return o, nil
	}

	if c.Isolation != "" {
		level, err := parseIsolation(c.Isolation)
		if err != nil {
			return o, err
		}
		o.Isolation = level
	}
	if c.MaxAttempts > 0 {
		o.Retry.MaxAttempts = int(c.MaxAttempts)
	}
	if d := c.BackoffBase.AsDuration(); d > 0 {
		o.Retry.BackoffBase = d
	}
	if c.BackoffExponent > 0 {
		o.Retry.BackoffExponent = c.BackoffExponent
	}
	return o, nil
}

func parseIsolation(s string) (sql.IsolationLevel, error) {
	switch strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(s)) {
	case "read_uncommitted":
		return sql.LevelReadUncommitted, nil
	case "read_committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, fmt.Errorf("unknown transaction isolation %q", s)
	}
}
