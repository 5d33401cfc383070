package rocketmq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/orphancare/charity-service/internal/conf"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(&conf.RocketMQ{
		NameServers:   " 10.0.0.1:8081 ;10.0.0.2:8081",
		ProducerGroup: "charity-service",
		AccessKey:     "ak",
		SecretKey:     "sk",
		SendTimeout:   &conf.Duration{Duration: 2 * time.Second},
		RetryTimes:    5,
	})

	assert.Equal(t, "10.0.0.1:8081", cfg.Endpoint)
	assert.Equal(t, "charity-service", cfg.ProducerGroup)
	assert.Equal(t, "ak", cfg.Credentials.AccessKey)
	assert.Equal(t, "sk", cfg.Credentials.AccessSecret)
	assert.Equal(t, 2*time.Second, cfg.SendTimeout)
	assert.Equal(t, int32(5), cfg.MaxAttempts)
	assert.Equal(t, "charity-service", cfg.ToRMQConfig().ConsumerGroup)
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig(&conf.RocketMQ{NameServers: "127.0.0.1:8081"})

	assert.Equal(t, "127.0.0.1:8081", cfg.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.SendTimeout)
	assert.Equal(t, int32(3), cfg.MaxAttempts)
	assert.False(t, cfg.EnableSSL)
}

func TestMessageToRMQ(t *testing.T) {
	msg := (&Message{
		Topic:      "sponsorship-events",
		Body:       []byte(`{"type":"sponsorship.created"}`),
		Keys:       []string{"42"},
		Tag:        "sponsorship.created",
		Properties: map[string]string{"orphan_id": "7"},
	}).toRMQ()

	assert.Equal(t, "sponsorship-events", msg.Topic)
	assert.Equal(t, []string{"42"}, msg.GetKeys())
	if assert.NotNil(t, msg.GetTag()) {
		assert.Equal(t, "sponsorship.created", *msg.GetTag())
	}
	assert.Equal(t, "7", msg.GetProperties()["orphan_id"])
}

func TestMessageToRMQ_Minimal(t *testing.T) {
	msg := (&Message{Topic: "t", Body: []byte("x")}).toRMQ()

	assert.Empty(t, msg.GetKeys())
	assert.Nil(t, msg.GetTag())
	assert.Empty(t, msg.GetProperties())
}
