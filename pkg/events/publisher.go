package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/creativevault/pkg/configs"
)

// Publisher 按开关过滤后发布素材事件.
type Publisher struct {
	pub message.Publisher
	cfg configs.EventsConfig
}

// NewPublisher 创建事件发布器.
func NewPublisher(pub message.Publisher, cfg configs.EventsConfig) *Publisher {
	return &Publisher{pub: pub, cfg: cfg}
}

// Enabled 判断主题是否需要发布.
func (p *Publisher) Enabled(topic string) bool {
	if p == nil || p.pub == nil {
		return false
	}

	return TopicEnabled(p.cfg, topic)
}

// TopicEnabled 按总开关与分主题开关判断主题是否启用，未知主题返回 false.
func TopicEnabled(cfg configs.EventsConfig, topic string) bool {
	if !cfg.Enabled {
		return false
	}

	switch topic {
	case TopicCreativeCreated:
		return cfg.Creative.Created
	case TopicCreativeUpdated:
		return cfg.Creative.Updated
	case TopicCreativeModerated:
		return cfg.Creative.Moderated
	case TopicCreativeDeleted:
		return cfg.Creative.Deleted
	default:
		return false
	}
}

// PublishCreative 发布素材事件，关闭的主题直接返回 nil.
func (p *Publisher) PublishCreative(ctx context.Context, topic string, evt CreativeEvent) error {
	if !p.Enabled(topic) {
		return nil
	}

	opts := []func(*EventHeader){WithProducer(configs.AppName)}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, WithTraceID(sc.TraceID().String()))
	}

	msg, err := NewWatermillMessage(topic, evt, opts...)
	if err != nil {
		return err
	}

	msg.SetContext(ctx)

	return p.pub.Publish(topic, msg)
}
