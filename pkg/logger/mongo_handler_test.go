package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSinkRecordPromotesCorrelationIDs(t *testing.T) {
	h := (&mongoSink{core: &sinkCore{}}).
		WithAttrs([]slog.Attr{slog.String("request_id", "req-1")}).
		WithGroup("stock").(*mongoSink)

	r := slog.NewRecord(time.Unix(0, 0), slog.LevelWarn, "short", 0)
	r.AddAttrs(
		slog.Int("requested", 3),
		slog.Any("error", errors.New("boom")),
		slog.Group("product", slog.String("id", "p1")),
	)
	doc := h.record(r)

	assert.Equal(t, "WARN", doc.Level)
	assert.Equal(t, "req-1", doc.RequestID)
	assert.Equal(t, bson.M{
		"stock.requested":  int64(3),
		"stock.error":      "boom",
		"stock.product.id": "p1",
	}, doc.Attrs)
}

func TestSinkRecordTopLevelIDs(t *testing.T) {
	h := &mongoSink{core: &sinkCore{}}
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "payment fulfilled", 0)
	r.AddAttrs(slog.String("event_id", "evt_1"), slog.String("intent_id", "pi_1"), slog.Duration("took", time.Second))

	doc := h.record(r)
	assert.Equal(t, "evt_1", doc.EventID)
	assert.Equal(t, "pi_1", doc.IntentID)
	assert.Equal(t, bson.M{"took": "1s"}, doc.Attrs)
}

func TestSinkSkipsDebugAndCountsDrops(t *testing.T) {
	h := &mongoSink{core: &sinkCore{queue: make(chan logRecord, 1)}}
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "x", 0)
	assert.NoError(t, h.Handle(context.Background(), r))
	assert.NoError(t, h.Handle(context.Background(), r))
	assert.Equal(t, int64(1), h.Dropped())
}
