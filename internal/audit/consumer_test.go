package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	queue     []kafka.Message
	committed []int64
	closed    bool
	onEmpty   func()
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.queue) == 0 {
		if r.onEmpty != nil {
			r.onEmpty()
		}
		return kafka.Message{}, io.EOF
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func recordMessage(t *testing.T, offset int64, rec Record) kafka.Message {
	t.Helper()
	value, err := json.Marshal(rec)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Key: []byte(rec.ID), Value: value}
}

func newTestConsumer(reader messageReader, sink Sink) (*Consumer, *test.Hook) {
	nullLogger, hook := test.NewNullLogger()
	return &Consumer{reader: reader, sink: sink, logger: nullLogger}, hook
}

func TestConsumer_PersistsAndCommits(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		recordMessage(t, 1, Record{ID: "a", Mode: "news", Status: "Likely Fake"}),
		{Offset: 2, Value: []byte("not json")},
		recordMessage(t, 3, Record{ID: "b", Mode: "privacy", Status: "Low Risk"}),
	}}
	sink := &memorySink{}
	consumer, hook := newTestConsumer(reader, sink)

	require.NoError(t, consumer.Run(context.Background()))

	require.Equal(t, 2, sink.count())
	assert.Equal(t, "a", sink.records[0].ID)
	assert.Equal(t, "b", sink.records[1].ID)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)

	var skipped bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Skipping undecodable audit message" {
			skipped = true
		}
	}
	assert.True(t, skipped)
}

func TestConsumer_SinkFailureLeavesOffsetUncommitted(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		recordMessage(t, 7, Record{ID: "a", Mode: "news", Status: "Uncertain"}),
	}}
	sink := &memorySink{err: errors.New("database is locked")}
	consumer, hook := newTestConsumer(reader, sink)

	require.NoError(t, consumer.Run(context.Background()))

	assert.Empty(t, reader.committed)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Failed to persist audit record", hook.LastEntry().Message)
}

type panickingSink struct{ memorySink }

func (s *panickingSink) Write(ctx context.Context, r Record) error {
	panic("driver bug")
}

func TestConsumer_RecoversFromSinkPanic(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		recordMessage(t, 1, Record{ID: "a", Mode: "news", Status: "Uncertain"}),
	}}
	consumer, _ := newTestConsumer(reader, &panickingSink{})

	assert.NotPanics(t, func() {
		require.NoError(t, consumer.Run(context.Background()))
	})
	assert.Empty(t, reader.committed)
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{onEmpty: cancel}
	consumer, _ := newTestConsumer(reader, &memorySink{})

	assert.NoError(t, consumer.Run(ctx))
}

func TestConsumer_Close(t *testing.T) {
	reader := &fakeReader{}
	sink := &memorySink{}
	consumer, _ := newTestConsumer(reader, sink)

	require.NoError(t, consumer.Close())
	assert.True(t, reader.closed)
	assert.True(t, sink.closed)
}

func TestNewKafkaConsumer(t *testing.T) {
	consumer := NewKafkaConsumer([]string{"localhost:9092"}, "analysis-audit", "audit-writers", &memorySink{})
	reader, ok := consumer.reader.(*kafka.Reader)
	require.True(t, ok)
	assert.Equal(t, "analysis-audit", reader.Config().Topic)
	assert.Equal(t, "audit-writers", reader.Config().GroupID)
	_ = reader.Close()
}
