package rocketmq

import (
	"os"
	"strings"
	"sync"
	"time"

	rmq "github.com/apache/rocketmq-clients/golang/v5"
	"github.com/apache/rocketmq-clients/golang/v5/credentials"

	"github.com/orphancare/charity-service/internal/conf"
)

var (
	sslOnce sync.Once
	logOnce sync.Once
)

// configureConsoleLog sends the SDK's own logs to the console instead of its
// default file under the user's home.
func configureConsoleLog() {
	logOnce.Do(func() {
		_ = os.Setenv("mq.consoleAppender.enabled", "true")
		rmq.ResetLogger()
	})
}

// configureSSL sets the global SSL flag once in a thread-safe manner.
// The first call determines the value; subsequent calls are no-ops.
func configureSSL(enable bool) {
	sslOnce.Do(func() {
		rmq.EnableSsl = enable
	})
}

// Config holds RocketMQ producer configuration for the v5 SDK.
type Config struct {
	Endpoint      string                          // gRPC endpoint (e.g., "127.0.0.1:8081")
	NameSpace     string                          // Optional namespace
	ProducerGroup string                          // Group the producer reports under
	Credentials   *credentials.SessionCredentials // Authentication credentials
	SendTimeout   time.Duration                   // Message send timeout
	MaxAttempts   int32                           // Max retry attempts for producer
	EnableSSL     bool                            // Whether to enable SSL
}

// NewConfig creates a Config from the service configuration.
// The v5 SDK talks gRPC to one proxy, so only the first name server is used.
func NewConfig(c *conf.RocketMQ) *Config {
	cfg := &Config{
		ProducerGroup: c.ProducerGroup,
		SendTimeout:   3 * time.Second,
		MaxAttempts:   3,
		EnableSSL:     false,
		Credentials: &credentials.SessionCredentials{
			AccessKey:    c.AccessKey,
			AccessSecret: c.SecretKey,
		},
	}

	servers := strings.ReplaceAll(c.NameServers, ";", ",")
	parts := strings.Split(servers, ",")
	if len(parts) > 0 {
		cfg.Endpoint = strings.TrimSpace(parts[0])
	}

	if d := c.SendTimeout.AsDuration(); d > 0 {
		cfg.SendTimeout = d
	}
	if c.RetryTimes > 0 {
		cfg.MaxAttempts = c.RetryTimes
	}

	return cfg
}

// ToRMQConfig converts Config to RocketMQ v5 SDK Config.
func (c *Config) ToRMQConfig() *rmq.Config {
	return &rmq.Config{
		Endpoint:      c.Endpoint,
		NameSpace:     c.NameSpace,
		ConsumerGroup: c.ProducerGroup,
		Credentials:   c.Credentials,
	}
}
