package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	sinkQueue     = 4096
	sinkBatch     = 50
	sinkFlushTick = 2 * time.Second
	// logRetention is enforced by a TTL index on "time".
	logRetention = 14 * 24 * time.Hour
)

// promoted attrs become top-level fields so the logs of one request, user
// or payment can be found with an indexed query.
var promoted = map[string]bool{
	"request_id": true,
	"user_id":    true,
	"intent_id":  true,
	"event_id":   true,
}

// logRecord is the document shape of the logs collection.
type logRecord struct {
	Time      time.Time `bson:"time"`
	Level     string    `bson:"level"`
	Msg       string    `bson:"msg"`
	RequestID string    `bson:"request_id,omitempty"`
	UserID    string    `bson:"user_id,omitempty"`
	IntentID  string    `bson:"intent_id,omitempty"`
	EventID   string    `bson:"event_id,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

// sinkCore is shared by a mongoSink and every handler derived from it.
type sinkCore struct {
	col     *mongo.Collection
	client  *mongo.Client
	queue   chan logRecord
	done    chan struct{}
	stopped sync.Once
	flushed chan struct{}
	dropped atomic.Int64
}

// mongoSink is a slog.Handler that batches Info-and-above records into
// MongoDB from one background goroutine. A full queue drops the record.
type mongoSink struct {
	core   *sinkCore
	attrs  []slog.Attr
	prefix string
}

func newMongoSink(uri, db, collection string) (*mongoSink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).
		SetConnectTimeout(5*time.Second).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(4))
	if err != nil {
		return nil, fmt.Errorf("logger: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("logger: mongo ping: %w", err)
	}

	col := client.Database(db).Collection(collection)
	_, err = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "time", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(logRetention / time.Second)),
		},
		{Keys: bson.D{{Key: "request_id", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "intent_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("logger: mongo indexes: %w", err)
	}

	core := &sinkCore{
		col:     col,
		client:  client,
		queue:   make(chan logRecord, sinkQueue),
		done:    make(chan struct{}),
		flushed: make(chan struct{}),
	}
	go core.drain()
	return &mongoSink{core: core}, nil
}

func (h *mongoSink) Enabled(_ context.Context, l slog.Level) bool { return l >= slog.LevelInfo }

func (h *mongoSink) Handle(_ context.Context, r slog.Record) error {
	doc := h.record(r)
	select {
	case h.core.queue <- doc:
	default:
		h.core.dropped.Add(1)
	}
	return nil
}

func (h *mongoSink) record(r slog.Record) logRecord {
	doc := logRecord{Time: r.Time, Level: r.Level.String(), Msg: r.Message, Attrs: bson.M{}}
	for _, a := range h.attrs {
		doc.add("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		doc.add(h.prefix, a)
		return true
	})
	if len(doc.Attrs) == 0 {
		doc.Attrs = nil
	}
	return doc
}

func (d *logRecord) add(prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			d.add(prefix+a.Key+".", ga)
		}
		return
	}
	if prefix == "" && promoted[a.Key] {
		switch a.Key {
		case "request_id":
			d.RequestID = v.String()
		case "user_id":
			d.UserID = v.String()
		case "intent_id":
			d.IntentID = v.String()
		case "event_id":
			d.EventID = v.String()
		}
		return
	}
	d.Attrs[prefix+a.Key] = bsonValue(v)
}

// bsonValue keeps scalars the encoder stores natively and renders the rest,
// errors included, as strings.
func bsonValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString, slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindBool, slog.KindTime:
		return v.Any()
	case slog.KindDuration:
		return v.Duration().String()
	}
	return v.String()
}

func (h *mongoSink) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &mongoSink{core: h.core, prefix: h.prefix}
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		next.attrs = append(next.attrs, a)
	}
	return next
}

func (h *mongoSink) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &mongoSink{core: h.core, attrs: h.attrs, prefix: h.prefix + name + "."}
}

// Dropped reports how many records were discarded on a full queue.
func (h *mongoSink) Dropped() int64 { return h.core.dropped.Load() }

func (c *sinkCore) drain() {
	defer close(c.flushed)

	ticker := time.NewTicker(sinkFlushTick)
	defer ticker.Stop()

	batch := make([]any, 0, sinkBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = c.col.InsertMany(ctx, batch, options.InsertMany().SetOrdered(false))
		batch = batch[:0]
	}

	for {
		select {
		case doc := <-c.queue:
			batch = append(batch, doc)
			if len(batch) == sinkBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-c.done:
			for len(c.queue) > 0 {
				batch = append(batch, <-c.queue)
				if len(batch) == sinkBatch {
					flush()
				}
			}
			flush()
			return
		}
	}
}

// Close flushes queued records and disconnects. Safe to call twice.
func (h *mongoSink) Close() {
	h.core.stopped.Do(func() {
		close(h.core.done)
		<-h.core.flushed
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.core.client.Disconnect(ctx)
		if n := h.core.dropped.Load(); n > 0 {
			L.Warn("mongo log sink dropped records", "count", n)
		}
	})
}

// tee sends every record to each handler that accepts its level.
type tee []slog.Handler

func (t tee) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []string
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("logger: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t tee) WithGroup(name string) slog.Handler {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
