package worker

import (
	"context"

	"github.com/example/share-dialog-service/internal/kafka/consumer"
)

// OffsetCommitter commits consumer records. *consumer.Consumer implements it.
type OffsetCommitter interface {
	Commit(ctx context.Context, record *consumer.Record) error
}

// KafkaHandler adapts the engine to a consumer.Handler. Each worker record is
// bound to cons so RecordCommitter commits the original Kafka offset.
func KafkaHandler(engine *Engine, cons OffsetCommitter) consumer.Handler {
	return func(ctx context.Context, rec *consumer.Record) error {
		if engine == nil || rec == nil {
			return nil
		}

		var commitFn func(context.Context) error
		if cons != nil {
			commitFn = func(c context.Context) error {
				return cons.Commit(c, rec)
			}
		}

		engine.HandleRecord(ctx, NewRecordFromConsumer(rec, commitFn))
		return nil
	}
}

// NewRecordFromConsumer copies rec into a worker record bound to commit.
func NewRecordFromConsumer(rec *consumer.Record, commit func(context.Context) error) *Record {
	if rec == nil {
		return nil
	}

	wr := &Record{
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Key:       cloneBytes(rec.Key),
		Value:     cloneBytes(rec.Value),
		Timestamp: rec.Timestamp,
		Headers:   cloneHeaders(rec.Headers),
	}
	if commit != nil {
		wr.setCommitFn(commit)
	}
	return wr
}
