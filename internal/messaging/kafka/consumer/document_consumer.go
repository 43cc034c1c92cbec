package consumer

import (
	"context"
	"encoding/json"

	"github.com/ANDREW-SIGEI/kemri27/internal/document"
	"github.com/ANDREW-SIGEI/kemri27/internal/events"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafkago.Reader the consumers use.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ConsumeDocumentLifecycle drops the cached dashboard stats of every user a
// document event touches. Messages that cannot be decoded are committed and
// skipped; a failed invalidation leaves the message uncommitted.
func ConsumeDocumentLifecycle(
	ctx context.Context,
	reader MessageReader,
	rdb redis.Cmdable,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.document_lifecycle")
	log.Info("document lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("document lifecycle consumer stopped")
				return
			}
			log.Error("fetch document lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.DocumentEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode document event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := InvalidateStats(ctx, rdb, event); err != nil {
			log.Error("invalidate stats cache failed",
				zap.String("document_id", event.DocumentID),
				zap.String("event_type", event.EventType),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit document lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("document event handled",
			zap.String("event_type", event.EventType),
			zap.String("document_id", event.DocumentID),
			zap.String("request_id", event.RequestID),
		)
	}
}

func InvalidateStats(ctx context.Context, rdb redis.Cmdable, event events.DocumentEvent) error {
	ids := event.AffectedUserIDs()
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, document.StatsCacheKey(id))
	}
	return rdb.Del(ctx, keys...).Err()
}
