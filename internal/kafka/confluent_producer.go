package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/log"
)

type ConfluentProducer struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
}

func NewConfluentProducer(brokers, topic string, partitions int) (*ConfluentProducer, error) {
	if err := ensureTopic(brokers, topic, partitions); err != nil {
		l := log.L()
		l.Warn().Err(err).Str("topic", topic).Msg("failed to ensure topic (may already exist)")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	cp := &ConfluentProducer{
		producer: p,
		topic:    topic,
		doneCh:   make(chan struct{}),
	}

	go cp.deliveryReportHandler()

	return cp, nil
}

func ensureTopic(brokers, topic string, partitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	}})
	if err != nil {
		return err
	}

	for _, result := range results {
		if code := result.Error.Code(); code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", result.Topic, result.Error)
		}
	}
	return nil
}

func (cp *ConfluentProducer) deliveryReportHandler() {
	l := log.L()
	for e := range cp.producer.Events() {
		if ev, ok := e.(*kafka.Message); ok && ev.TopicPartition.Error != nil {
			l.Warn().
				Err(ev.TopicPartition.Error).
				Str(log.FieldRoomID, string(ev.Key)).
				Msg("kafka delivery failed")
		}
	}
	close(cp.doneCh)
}

// event is the record value on the topic.
type event struct {
	MessageID        string `json:"message_id"`
	RoomID           string `json:"room_id"`
	UserID           string `json:"user_id"`
	Username         string `json:"username"`
	Message          string `json:"message"`
	Timestamp        string `json:"timestamp"`
	ModerationStatus string `json:"moderation_status"`
	ModerationReason string `json:"moderation_reason"`
}

func newEvent(msg *domain.Message) event {
	return event{
		MessageID:        msg.MessageID,
		RoomID:           msg.RoomID,
		UserID:           msg.UserID,
		Username:         msg.Username,
		Message:          msg.Text,
		Timestamp:        domain.FormatTimestamp(msg.Timestamp),
		ModerationStatus: string(msg.ModerationStatus),
		ModerationReason: msg.ModerationReason,
	}
}

func (cp *ConfluentProducer) Publish(ctx context.Context, msg *domain.Message) error {
	value, err := json.Marshal(newEvent(msg))
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	// Keyed by room so one room stays on one partition.
	err = cp.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &cp.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(msg.RoomID),
		Value: value,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

func (cp *ConfluentProducer) Close() error {
	cp.producer.Flush(5000)
	cp.producer.Close()
	<-cp.doneCh
	return nil
}
