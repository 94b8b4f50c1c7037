package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-volunteers/internal/logger"
)

// Producer publishes domain events. In mock mode nothing leaves the
// process; messages are only logged, which keeps local runs free of a
// broker dependency.
type Producer struct {
	Writer *kafka.Writer
	Mock   bool
	Logger *logger.Logger
}

func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, Logger: log}
}

func NewMockProducer(log *logger.Logger) *Producer {
	return &Producer{Mock: true, Logger: log}
}

// Publish writes one message to the given topic.
func (p *Producer) Publish(topic, key string, value []byte) error {
	if p.Mock {
		if p.Logger != nil {
			p.Logger.LogKafka("MOCK", topic, string(value))
		}
		return nil
	}

	err := p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	if p.Logger != nil {
		p.Logger.LogKafka("PUBLISH", topic, fmt.Sprintf("key=%s bytes=%d", key, len(value)))
	}
	return nil
}

func (p *Producer) Close() error {
	if p.Writer == nil {
		return nil
	}
	return p.Writer.Close()
}
