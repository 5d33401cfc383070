// Package conf holds the service configuration loaded by the kratos config
// module. Field names follow the snake_case keys of configs/config.yaml.
package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

type Bootstrap struct {
	Server   *Server   `json:"server"`
	Data     *Data     `json:"data"`
	RocketMQ *RocketMQ `json:"rocketmq"`
	Auth     *Auth     `json:"auth"`
	Job      *Job      `json:"job"`
}

type Server struct {
	HTTP *HTTPServer `json:"http"`
	GRPC *GRPCServer `json:"grpc"`
}

type HTTPServer struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

type GRPCServer struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

type Data struct {
	Database    *Database    `json:"database"`
	Redis       *Redis       `json:"redis"`
	Transaction *Transaction `json:"transaction"`
}

type Database struct {
	Username        string    `json:"username"`
	Password        string    `json:"password"`
	Host            string    `json:"host"`
	Port            int32     `json:"port"`
	DBName          string    `json:"db_name"`
	MaxIdleConns    int32     `json:"max_idle_conns"`
	MaxOpenConns    int32     `json:"max_open_conns"`
	DBCharset       string    `json:"db_charset"`
	ConnMaxLifetime *Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime *Duration `json:"conn_max_idle_time"`
	SlowThreshold   *Duration `json:"slow_threshold"`
	AutoMigrate     bool      `json:"auto_migrate"`
}

type Redis struct {
	Addr         string    `json:"addr"`
	Password     string    `json:"password"`
	DB           int32     `json:"db"`
	DialTimeout  *Duration `json:"dial_timeout"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
	// CacheTTL is how long a sponsorship stays in the read cache.
	CacheTTL *Duration `json:"cache_ttl"`
}

// Transaction tunes the retry of transactions that hit a deadlock,
// a lock wait timeout or a serialization failure. Zero values keep defaults.
type Transaction struct {
	// Isolation is one of read_uncommitted, read_committed, repeatable_read, serializable.
	Isolation       string    `json:"isolation"`
	MaxAttempts     int32     `json:"max_attempts"`
	BackoffBase     *Duration `json:"backoff_base"`
	BackoffExponent float64   `json:"backoff_exponent"`
}

type RocketMQ struct {
	NameServers   string    `json:"name_servers"`
	ProducerGroup string    `json:"producer_group"`
	AccessKey     string    `json:"access_key"`
	SecretKey     string    `json:"secret_key"`
	SendTimeout   *Duration `json:"send_timeout"`
	RetryTimes    int32     `json:"retry_times"`
	// Topic receives the sponsorship lifecycle events.
	Topic string `json:"topic"`
}

type Auth struct {
	JWTSecret string `json:"jwt_secret"`
}

type Job struct {
	ActiveSponsorships *Ticker `json:"active_sponsorships"`
}

type Ticker struct {
	Enabled  bool      `json:"enabled"`
	Interval *Duration `json:"interval"`
}

// Duration reads "1.5s" style strings, or a number of nanoseconds.
type Duration struct {
	time.Duration
}

// AsDuration returns the wrapped value, zero for a nil Duration.
func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
