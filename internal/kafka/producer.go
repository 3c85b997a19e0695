package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// ChangeEvent is published after every mutation so peer instances can drop
// the same cache keys. Origin carries the publishing instance's name;
// consumers skip their own messages.
type ChangeEvent struct {
	Entity    string    `json:"entity"`
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	CacheKeys []string  `json:"cache_keys"`
	Origin    string    `json:"origin"`
	At        time.Time `json:"at"`
}

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

// Publish writes a raw message to the given topic.
func (p *Producer) Publish(topic string, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishChange marshals and publishes an entity-change event.
func (p *Producer) PublishChange(topic string, event ChangeEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Publish(topic, event.Entity+":"+event.ID, value)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
