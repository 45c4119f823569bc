package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"

	"swaprouter/apps/router/internal/model"
)

// KafkaQueue is the durable backend. Jobs are produced keyed by order
// id (per-key ordering keeps an order's redeliveries on one partition)
// and offsets are committed only on Ack, giving at-least-once
// delivery: a worker crash before commit causes redelivery.
type KafkaQueue struct {
	producer *kafka.Producer
	consumer *kafka.Consumer
	topic    string
	logger   *zap.Logger
}

func NewKafkaQueue(broker, topic, group string, logger *zap.Logger) (*KafkaQueue, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": broker,
		"acks":              "all",
		"retries":           3,
		"retry.backoff.ms":  100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  broker,
		"group.id":           group,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		producer.Close()
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	if err := consumer.Subscribe(topic, nil); err != nil {
		producer.Close()
		consumer.Close()
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	return &KafkaQueue{
		producer: producer,
		consumer: consumer,
		topic:    topic,
		logger:   logger,
	}, nil
}

func (q *KafkaQueue) Enqueue(job model.Job) error {
	msgBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	deliveryChan := make(chan kafka.Event)
	defer close(deliveryChan)

	err = q.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &q.topic, Partition: kafka.PartitionAny},
		Key:            []byte(job.OrderID),
		Value:          msgBytes,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("failed to produce job: %w", err)
	}

	// Wait for delivery confirmation
	e := <-deliveryChan
	switch ev := e.(type) {
	case *kafka.Message:
		if ev.TopicPartition.Error != nil {
			return ev.TopicPartition.Error
		}
		return nil
	default:
		return fmt.Errorf("unexpected kafka event type: %T", e)
	}
}

func (q *KafkaQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msg, err := q.consumer.ReadMessage(100 * time.Millisecond)
		if err != nil {
			if kerr, ok := err.(kafka.Error); ok && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			q.logger.Error("Error reading message from Kafka", zap.Error(err))
			continue
		}

		var job model.Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			q.logger.Error("Dropping malformed job message",
				zap.String("key", string(msg.Key)),
				zap.Error(err))
			if _, err := q.consumer.CommitMessage(msg); err != nil {
				q.logger.Error("Failed to commit malformed message", zap.Error(err))
			}
			continue
		}

		return &Delivery{
			Job: job,
			ack: func() error {
				_, err := q.consumer.CommitMessage(msg)
				return err
			},
			// No nack-side action: an uncommitted offset is redelivered
			// after rebalance or restart.
			nack: nil,
		}, nil
	}
}

func (q *KafkaQueue) Close() error {
	if q.producer != nil {
		q.producer.Close()
	}
	if q.consumer != nil {
		return q.consumer.Close()
	}
	return nil
}
