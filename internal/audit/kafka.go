package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// KafkaProcessor publishes audit events to a Kafka topic for downstream
// activity-log consumers.
type KafkaProcessor struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaProcessor(brokers []string, topic string) (*KafkaProcessor, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaProcessor{
		producer: producer,
		topic:    topic,
	}, nil
}

func (p *KafkaProcessor) Process(batch []Event) error {
	messages := make([]*sarama.ProducerMessage, len(batch))

	for i, event := range batch {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("audit kafka processor: failed to marshal event: %w", err)
		}

		messages[i] = &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(event.EntityID),
			Value: sarama.ByteEncoder(payload),
		}
	}

	if err := p.producer.SendMessages(messages); err != nil {
		return fmt.Errorf("audit kafka processor: failed to send batch: %w", err)
	}

	return nil
}

func (p *KafkaProcessor) Close() error {
	return p.producer.Close()
}
