package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kumabot/kumabot/bot/model"
	"github.com/redis/go-redis/v9"
)

// RequestHandler receives one deserialized request. It must not block: the
// read loop is the one sequential choke point, so implementations hand the
// request off (e.g. to a worker pool) and return.
type RequestHandler func(req *model.Request)

type ConsumerConfig struct {
	// Group is the consumer group to read with. Defaults to Group.
	Group string

	// Name identifies this consumer within the group. Defaults to
	// hostname plus a random suffix.
	Name string

	// Block is the blocking poll timeout per read. Defaults to 5s.
	Block time.Duration

	// BatchSize caps entries per read. Defaults to 16.
	BatchSize int64
}

// Consumer continuously reads the shared request stream through a consumer
// group. Delivery is at-least-once: a crashed consumer's pending entries
// are re-read, and handlers may see the same request twice. Content
// commands are not idempotent, so duplicates can produce duplicate
// replies; this is accepted as best-effort.
type Consumer struct {
	rdb     *redis.Client
	handler RequestHandler
	c       ConsumerConfig
}

func NewConsumer(rdb *redis.Client, handler RequestHandler, c ConsumerConfig) *Consumer {
	if c.Group == "" {
		c.Group = Group
	}
	if c.Name == "" {
		host, _ := os.Hostname()
		c.Name = fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
	}
	if c.Block <= 0 {
		c.Block = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 16
	}

	return &Consumer{rdb: rdb, handler: handler, c: c}
}

// Run blocks reading the request stream until ctx is cancelled. Malformed
// or empty entries are skipped and acknowledged, never fatal.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	slog.Info("[bus] consumer started",
		"stream", RequestStream, "group", c.c.Group, "consumer", c.c.Name)

	for {
		if ctx.Err() != nil {
			slog.Info("[bus] consumer stopped", "reason", ctx.Err())
			return nil
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.c.Group,
			Consumer: c.c.Name,
			Streams:  []string{RequestStream, ">"},
			Count:    c.c.BatchSize,
			Block:    c.c.Block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("[bus] consumer stopped", "reason", ctx.Err())
				return nil
			}
			slog.Error("[bus] read failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				c.dispatch(&msg)
				if err := c.rdb.XAck(ctx, RequestStream, c.c.Group, msg.ID).Err(); err != nil {
					slog.Warn("[bus] ack failed", "id", msg.ID, "error", err)
				}
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, RequestStream, c.c.Group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

func (c *Consumer) dispatch(msg *redis.XMessage) {
	raw, ok := msg.Values[requestField]
	payload, _ := raw.(string)
	if !ok || payload == "" {
		slog.Debug("[bus] skipping empty entry", "id", msg.ID)
		return
	}

	var req model.Request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		slog.Warn("[bus] skipping malformed entry", "id", msg.ID, "error", err)
		return
	}

	c.handler(&req)
}

type TailerConfig struct {
	// Block is the blocking poll timeout per read. Defaults to 5s.
	Block time.Duration

	// From is the stream ID to start after. Defaults to "$", the current
	// tip.
	From string
}

// Tailer follows one source system's outbound stream, delivering each
// response to fn. Front-end processes use it to receive their replies.
type Tailer struct {
	rdb    *redis.Client
	source model.SourceSystem
	c      TailerConfig
}

func NewTailer(rdb *redis.Client, source model.SourceSystem, c TailerConfig) *Tailer {
	if c.Block <= 0 {
		c.Block = 5 * time.Second
	}
	if c.From == "" {
		c.From = "$"
	}
	return &Tailer{rdb: rdb, source: source, c: c}
}

// Run blocks tailing the stream until ctx is cancelled. Entries older than
// the trim horizon are unrecoverable and never surface here.
func (t *Tailer) Run(ctx context.Context, fn func(resp *model.Response)) error {
	stream := ResponseStream(t.source)
	lastID := t.c.From

	for {
		if ctx.Err() != nil {
			return nil
		}

		streams, err := t.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{stream, lastID},
			Count:   16,
			Block:   t.c.Block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("[bus] tail read failed", "stream", stream, "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				lastID = msg.ID

				raw, _ := msg.Values[responseField].(string)
				if raw == "" {
					continue
				}

				var resp model.Response
				if err := json.Unmarshal([]byte(raw), &resp); err != nil {
					slog.Warn("[bus] skipping malformed response", "id", msg.ID, "error", err)
					continue
				}
				fn(&resp)
			}
		}
	}
}
