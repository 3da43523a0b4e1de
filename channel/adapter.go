// Package channel defines the front-end surface contract: an adapter turns
// native platform events into Requests and delivers Responses back.
package channel

import (
	"context"

	"github.com/kumabot/kumabot/bot/model"
)

type Adapter interface {
	// Source returns the source system this adapter fronts.
	Source() model.SourceSystem

	// ReceiveChan returns a channel of normalized inbound requests.
	ReceiveChan() <-chan *model.Request

	// SendChan returns a channel the core delivers responses on.
	SendChan() chan<- *model.Response

	// Start starts the adapter processing.
	// It should block until the context is done.
	Start(ctx context.Context) error
}
