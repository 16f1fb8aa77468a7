package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	kafkaBufferSize   = 1000
	kafkaWriteTimeout = 10 * time.Second
)

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON to a topic from a background goroutine.
// Events are dropped when the buffer is full or the publisher is closed.
type KafkaPublisher struct {
	writer KafkaWriter
	events chan Event
	logger *slog.Logger
	done   chan struct{}
	once   sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return NewKafkaPublisherWithWriter(writer, logger)
}

func NewKafkaPublisherWithWriter(writer KafkaWriter, logger *slog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		writer: writer,
		events: make(chan Event, kafkaBufferSize),
		logger: logger.With("component", "kafka_publisher"),
		done:   make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *KafkaPublisher) Publish(_ context.Context, event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	// Requests still running past the shutdown deadline land here.
	if p.closed {
		p.logger.Warn("publisher closed, dropping event",
			"event_type", event.Type,
			"entity_id", event.EntityID,
		)
		return
	}

	select {
	case p.events <- event:
	default:
		p.logger.Warn("event buffer full, dropping event",
			"event_type", event.Type,
			"entity_id", event.EntityID,
		)
	}
}

func (p *KafkaPublisher) loop() {
	defer close(p.done)
	for event := range p.events {
		p.send(event)
	}
}

func (p *KafkaPublisher) send(event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to serialize event", "error", err, "event_id", event.ID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), kafkaWriteTimeout)
	defer cancel()

	// Keyed by entity so events about one record stay ordered within a partition.
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Entity + ":" + strconv.FormatUint(uint64(event.EntityID), 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		p.logger.Error("failed to produce event",
			"error", err,
			"event_type", event.Type,
			"entity_id", event.EntityID,
		)
	}
}

// Close flushes buffered events and closes the writer.
func (p *KafkaPublisher) Close() error {
	var err error
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.events)
		p.mu.Unlock()

		<-p.done
		err = p.writer.Close()
	})
	return err
}
