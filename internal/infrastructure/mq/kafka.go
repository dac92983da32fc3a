package mq

import (
	"context"
	"fmt"

	"bizledger/internal/config"

	"github.com/IBM/sarama"
)

// Producer publishes ledger events synchronously.
type Producer struct {
	producer sarama.SyncProducer
}

func NewProducer(cfg *config.KafkaConfig) (*Producer, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Producer{producer: producer}, nil
}

// NewProducerFrom wraps an existing producer, e.g. a sarama mock.
func NewProducerFrom(p sarama.SyncProducer) *Producer {
	return &Producer{producer: p}
}

// Publish sends one message keyed for per-document ordering.
func (p *Producer) Publish(ctx context.Context, topic, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}
	_, _, err := p.producer.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
