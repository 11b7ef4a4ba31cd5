// Package events publishes entity representations to the sheet-sync
// mirror topic. Mirroring is strictly best-effort: events are queued
// on a buffered channel and dropped when the queue is full, so a slow
// or absent broker can never block a ledger operation.
package events

import (
	"context"
	"encoding/json"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	DepartmentCreated EventType = "department_created"
	DepartmentUpdated EventType = "department_updated"
	DepartmentDeleted EventType = "department_deleted"
	EmployeeCreated   EventType = "employee_created"
	EmployeeUpdated   EventType = "employee_updated"
	EmployeeDeleted   EventType = "employee_deleted"
	EvaluationCreated EventType = "evaluation_created"
	EvaluationUpdated EventType = "evaluation_updated"
	EvaluationDeleted EventType = "evaluation_deleted"
)

// Event carries one entity representation to the mirror.
type Event struct {
	Type   EventType   `json:"type"`
	Key    string      `json:"key"`
	Entity interface{} `json:"entity"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

// NewProducer connects to the broker cluster, ensures the mirror topic
// exists and starts the delivery loop. The initial dial is retried
// with exponential backoff since the broker often comes up alongside
// the service.
func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	var conn *kafka.Conn
	err := backoff.Retry(func() error {
		var dialErr error
		conn, dialErr = kafka.Dial("tcp", brokers[0])
		return dialErr
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	p := &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
			Topic:    topic,
		},
		events:    make(chan Event, 1000),
		logger:    logger.Named("mirror_producer"),
		closeChan: make(chan struct{}),
	}

	go p.eventLoop()
	return p, nil
}

// Produce queues one event for delivery. Never blocks: when the queue
// is full the event is dropped and logged.
func (p *Producer) Produce(eventType EventType, key string, entity interface{}) {
	select {
	case p.events <- Event{Type: eventType, Key: key, Entity: entity}:
	default:
		p.logger.Warn("mirror queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("key", key),
		)
	}
}

func (p *Producer) eventLoop() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("failed to serialize event",
			zap.Error(err),
			zap.String("key", event.Key),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
	})
	if err != nil {
		p.logger.Error("failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("key", event.Key),
		)
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("failed to close writer", zap.Error(err))
	}
}
