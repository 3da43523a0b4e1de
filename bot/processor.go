package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kumabot/kumabot/bot/model"
	"github.com/kumabot/kumabot/command"
	"github.com/kumabot/kumabot/pkg/safe"
)

// ChatLogger persists request/response pairs and handler faults. Calls run
// concurrently with response delivery and never block it.
type ChatLogger interface {
	LogRequest(ctx context.Context, req *model.Request) error
	LogResponse(ctx context.Context, req *model.Request, resp *model.Response) error
	LogError(ctx context.Context, cause error, where string) error
}

type ProcessorConfig struct {
	// Fallback handles any message that resolves to no registered command.
	// When nil, such messages produce no response.
	Fallback command.HandlerFunc

	// Logs receives request/response/fault records. Optional.
	Logs ChatLogger
}

// Processor turns one Request into at most one Response: resolve the
// command word, gate it, run the handler, notify subscribers. It holds no
// state across invocations beyond the immutable registry.
//
// Policy denials (authority or content policy) are silent: the handler
// never runs and no response is produced.
type Processor struct {
	registry *command.Registry
	c        ProcessorConfig

	subMu          sync.RWMutex
	processingSubs []func(channelID string)
	respondedSubs  []func(resp *model.Response)
}

func NewProcessor(registry *command.Registry, c ProcessorConfig) *Processor {
	return &Processor{
		registry: registry,
		c:        c,
	}
}

// SubscribeProcessing registers a callback fired right before a handler
// runs, so a front end can show a transient indicator. Callbacks must not
// block.
func (p *Processor) SubscribeProcessing(fn func(channelID string)) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	p.processingSubs = append(p.processingSubs, fn)
}

// SubscribeResponded registers a callback fired with every produced
// response. Callbacks must not block.
func (p *Processor) SubscribeResponded(fn func(resp *model.Response)) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	p.respondedSubs = append(p.respondedSubs, fn)
}

// Process handles one request. A nil return means policy suppressed the
// reply or the handler produced (or faulted into) nothing.
func (p *Processor) Process(ctx context.Context, req *model.Request) *model.Response {
	if strings.TrimSpace(req.Message) == "" {
		return nil
	}

	p.logRequest(ctx, req)

	name, args := tokenize(req.Message)
	handler := p.c.Fallback

	if desc, ok := p.registry.Lookup(name); ok {
		if req.Authority < desc.MinAuthority {
			slog.Debug("[bot] authority denied",
				"command", desc.Name(), "username", req.Username, "authority", req.Authority.String())
			return nil
		}
		if desc.NSFW && !req.ChannelIsNSFW {
			slog.Debug("[bot] content policy denied",
				"command", desc.Name(), "channel", req.ChannelID)
			return nil
		}
		handler = desc.Handler
	}

	if handler == nil {
		return nil
	}

	p.emitProcessing(req.ChannelID)

	resp, err := p.invoke(ctx, handler, req, args)
	if err != nil {
		slog.Error("[bot] handler failed",
			"command", name, "source", req.SourceSystem, "error", err)
		p.logError(ctx, err, name)
		return nil
	}
	if resp == nil {
		return nil
	}

	resp.SourceSystem = req.SourceSystem
	resp.ChannelID = req.ChannelID

	p.emitResponded(resp)
	p.logResponse(ctx, req, resp)

	return resp
}

// invoke runs the handler, converting a panic into an error so a failing
// command never takes the pipeline down.
func (p *Processor) invoke(
	ctx context.Context,
	handler command.HandlerFunc,
	req *model.Request,
	args []string,
) (resp *model.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return handler(ctx, req, args)
}

func (p *Processor) emitProcessing(channelID string) {
	p.subMu.RLock()
	defer p.subMu.RUnlock()
	for _, fn := range p.processingSubs {
		fn(channelID)
	}
}

func (p *Processor) emitResponded(resp *model.Response) {
	p.subMu.RLock()
	defer p.subMu.RUnlock()
	for _, fn := range p.respondedSubs {
		fn(resp)
	}
}

func (p *Processor) logRequest(ctx context.Context, req *model.Request) {
	if p.c.Logs == nil {
		return
	}
	logCtx := context.WithoutCancel(ctx)
	safe.Go(func() {
		if err := p.c.Logs.LogRequest(logCtx, req); err != nil {
			slog.Error("[bot] failed to log request", "error", err)
		}
	})
}

func (p *Processor) logResponse(ctx context.Context, req *model.Request, resp *model.Response) {
	if p.c.Logs == nil {
		return
	}
	logCtx := context.WithoutCancel(ctx)
	safe.Go(func() {
		if err := p.c.Logs.LogResponse(logCtx, req, resp); err != nil {
			slog.Error("[bot] failed to log response", "error", err)
		}
	})
}

func (p *Processor) logError(ctx context.Context, cause error, where string) {
	if p.c.Logs == nil {
		return
	}
	logCtx := context.WithoutCancel(ctx)
	safe.Go(func() {
		if err := p.c.Logs.LogError(logCtx, cause, where); err != nil {
			slog.Error("[bot] failed to log handler fault", "error", err)
		}
	})
}

// tokenize splits the raw message into the candidate command word and its
// arguments.
func tokenize(message string) (string, []string) {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}
