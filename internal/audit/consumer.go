package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/vaibhav1874/TrueVail/internal/logger"
)

const fetchErrorBackoff = time.Second

// messageReader is the subset of *kafka.Reader the consumer uses
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer moves audit records from the Kafka topic into a sink
type Consumer struct {
	reader messageReader
	sink   Sink
	logger *logrus.Logger
}

// NewKafkaConsumer joins groupID on topic and writes every record to sink
func NewKafkaConsumer(brokers []string, topic, groupID string, sink Sink) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			Topic:          topic,
			GroupID:        groupID,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: 0,
		}),
		sink:   sink,
		logger: logger.Log,
	}
}

// Run consumes until ctx is cancelled or the reader is closed
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Audit consumer ready to process records")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			logger.LogErrorWithStack(err, map[string]interface{}{
				"operation": "kafka_fetch_message",
			})
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchErrorBackoff):
			}
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			// left uncommitted so the group redelivers it after a restart
			c.logger.WithFields(map[string]interface{}{
				"component": "audit_consumer",
				"partition": msg.Partition,
				"offset":    msg.Offset,
				"error":     err.Error(),
			}).Error("Failed to persist audit record")
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.WithFields(map[string]interface{}{
				"component": "audit_consumer",
				"offset":    msg.Offset,
				"error":     err.Error(),
			}).Warn("Failed to commit audit offset")
		}
	}
}

// process decodes and stores one message. Undecodable messages are logged and skipped.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(map[string]interface{}{
				"panic":       r,
				"stack_trace": logger.GetStackTrace(0),
				"offset":      msg.Offset,
			}).Error("Audit consumer panic while processing record")
			retErr = fmt.Errorf("consumer panicked: %v", r)
		}
	}()

	record, err := Decode(msg.Value)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"component":     "audit_consumer",
			"offset":        msg.Offset,
			"message_value": logger.TruncateForLog(string(msg.Value), 200),
			"error":         err.Error(),
		}).Warn("Skipping undecodable audit message")
		return nil
	}

	if err := c.sink.Write(ctx, record); err != nil {
		return err
	}
	c.logger.WithFields(map[string]interface{}{
		"component":      "audit_consumer",
		"record_id":      record.ID,
		"correlation_id": record.CorrelationID,
		"mode":           record.Mode,
	}).Debug("Audit record persisted")
	return nil
}

// Close closes the reader and then the sink
func (c *Consumer) Close() error {
	readerErr := c.reader.Close()
	if err := c.sink.Close(); err != nil {
		return err
	}
	return readerErr
}
