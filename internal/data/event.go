package data

import (
	"context"
	"strconv"

	"github.com/go-kratos/kratos/v2/encoding"
	"github.com/go-kratos/kratos/v2/encoding/json"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/orphancare/charity-service/internal/biz"
	"github.com/orphancare/charity-service/internal/conf"
	"github.com/orphancare/charity-service/pkg/rocketmq"
)

const defaultEventTopic = "sponsorship-events"

// messageSender is the part of *rocketmq.Producer used for events.
type messageSender interface {
	SendMessage(ctx context.Context, msg *rocketmq.Message) (*rocketmq.SendReceipt, error)
}

type eventPublisher struct {
	sender messageSender
	topic  string
	codec  encoding.Codec
	log    *log.Helper
}

// NewEventPublisher publishes sponsorship events to RocketMQ. Without
// configured name servers, events are only logged.
func NewEventPublisher(c *conf.RocketMQ, logger log.Logger) (biz.EventPublisher, func(), error) {
	logHelper := log.NewHelper(log.With(logger, "module", "data/event"))
	if c == nil || c.NameServers == "" {
		logHelper.Warn("rocketmq name servers not configured, sponsorship events are only logged")
		return &logPublisher{log: logHelper}, func() {}, nil
	}

	topic := c.Topic
	if topic == "" {
		topic = defaultEventTopic
	}

	producer, cleanup, err := rocketmq.NewProducer(rocketmq.NewConfig(c), []string{topic}, logger)
	if err != nil {
		return nil, nil, err
	}
	return newEventPublisher(producer, topic, logger), cleanup, nil
}

func newEventPublisher(sender messageSender, topic string, logger log.Logger) *eventPublisher {
	return &eventPublisher{
		sender: sender,
		topic:  topic,
		codec:  encoding.GetCodec(json.Name),
		log:    log.NewHelper(log.With(logger, "module", "data/event")),
	}
}

func (p *eventPublisher) Publish(ctx context.Context, e *biz.SponsorshipEvent) error {
	body, err := p.codec.Marshal(e)
	if err != nil {
		return err
	}
	receipt, err := p.sender.SendMessage(ctx, &rocketmq.Message{
		Topic: p.topic,
		Body:  body,
		Keys:  []string{strconv.FormatInt(e.SponsorshipID, 10)},
		Tag:   string(e.Type),
		Properties: map[string]string{
			"orphan_id":  strconv.FormatInt(e.OrphanID, 10),
			"sponsor_id": strconv.FormatInt(e.SponsorID, 10),
			"status":     string(e.Status),
		},
	})
	if err != nil {
		return err
	}
	p.log.WithContext(ctx).Debugf("published %s for sponsorship %d, msgId=%s", e.Type, e.SponsorshipID, receipt.MessageID)
	return nil
}

type logPublisher struct {
	log *log.Helper
}

func (p *logPublisher) Publish(ctx context.Context, e *biz.SponsorshipEvent) error {
	p.log.WithContext(ctx).Infof("event %s sponsorship=%d orphan=%d sponsor=%d status=%s",
		e.Type, e.SponsorshipID, e.OrphanID, e.SponsorID, e.Status)
	return nil
}
