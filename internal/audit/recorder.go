package audit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vaibhav1874/TrueVail/internal/logger"
)

const (
	defaultBuffer = 256
	writeTimeout  = 5 * time.Second
)

// Sink persists or forwards audit records
type Sink interface {
	Write(ctx context.Context, r Record) error
	Close() error
}

// Recorder accepts records without ever blocking the caller
type Recorder interface {
	Record(r Record)
}

// NopRecorder discards everything
type NopRecorder struct{}

func (NopRecorder) Record(Record) {}

// DropCounter is notified whenever a record is dropped
type DropCounter interface {
	AuditRecordDropped()
}

// AsyncRecorder hands records to a single background writer through a bounded buffer
type AsyncRecorder struct {
	sink    Sink
	records chan Record
	done    chan struct{}
	drops   DropCounter
	logger  *logrus.Logger

	mu     sync.RWMutex
	closed bool
}

// NewAsyncRecorder starts the background writer
func NewAsyncRecorder(sink Sink, buffer int, drops DropCounter) *AsyncRecorder {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	r := &AsyncRecorder{
		sink:    sink,
		records: make(chan Record, buffer),
		done:    make(chan struct{}),
		drops:   drops,
		logger:  logger.Log,
	}
	go r.run()
	return r
}

// Record enqueues r, dropping it when the buffer is full or the recorder is closed
func (r *AsyncRecorder) Record(rec Record) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}

	select {
	case r.records <- rec:
	default:
		if r.drops != nil {
			r.drops.AuditRecordDropped()
		}
		r.logger.WithFields(map[string]interface{}{
			"component":      "audit",
			"correlation_id": rec.CorrelationID,
			"record_id":      rec.ID,
		}).Warn("Audit buffer full, dropping record")
	}
}

// Close stops accepting records, drains the buffer and closes the sink
func (r *AsyncRecorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return nil
	}
	r.closed = true
	close(r.records)
	r.mu.Unlock()

	<-r.done
	return r.sink.Close()
}

func (r *AsyncRecorder) run() {
	defer close(r.done)
	for rec := range r.records {
		r.write(rec)
	}
}

func (r *AsyncRecorder) write(rec Record) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.WithFields(map[string]interface{}{
				"component":   "audit",
				"panic":       p,
				"stack_trace": logger.GetStackTrace(0),
			}).Error("Audit sink panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.sink.Write(ctx, rec); err != nil {
		r.logger.WithFields(map[string]interface{}{
			"component":      "audit",
			"correlation_id": rec.CorrelationID,
			"record_id":      rec.ID,
			"error":          err.Error(),
		}).Warn("Audit sink write failed")
	}
}
