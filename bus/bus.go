// Package bus connects out-of-process front ends to the core over Redis
// Streams: one shared inbound stream of requests, one outbound stream of
// responses per source system. Streams are capacity-bounded with
// approximate trimming, so the bus is best-effort, not a retention log.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kumabot/kumabot/bot/model"
	"github.com/redis/go-redis/v9"
)

const (
	// RequestStream carries serialized requests from every non-embedded
	// front end.
	RequestStream = "kuma:requests"

	// Group is the consumer group core processors read requests with.
	Group = "kuma-core"

	requestField  = "request"
	responseField = "response"

	defaultMaxLen = 1024
)

// ResponseStream names the outbound stream for a source system. Derived
// purely from the identifier, so routing needs no lookup table.
func ResponseStream(source model.SourceSystem) string {
	return "kuma:responses:" + source.String()
}

// Producer appends requests and responses to their streams.
type Producer struct {
	rdb    *redis.Client
	maxLen int64
}

func NewProducer(rdb *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	return &Producer{rdb: rdb, maxLen: maxLen}
}

func (p *Producer) PublishRequest(ctx context.Context, req *model.Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return p.append(ctx, RequestStream, requestField, payload)
}

// PublishResponse routes the response to the outbound stream of the source
// system embedded in it.
func (p *Producer) PublishResponse(ctx context.Context, resp *model.Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	return p.append(ctx, ResponseStream(resp.SourceSystem), responseField, payload)
}

func (p *Producer) append(ctx context.Context, stream, field string, payload []byte) error {
	err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{field: string(payload)},
	}).Err()
	if err != nil {
		return fmt.Errorf("append to %s: %w", stream, err)
	}
	return nil
}
