// Package chat is the default conversational handler: any message that
// resolves to no registered command lands here.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/kumabot/kumabot/bot/model"
	"github.com/kumabot/kumabot/store"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const historyDepth = 20

type Config struct {
	ApiKey  string
	BaseURL string
}

type Handler struct {
	client *openai.Client
	store  *store.Store
}

func New(config Config, st *store.Store) (*Handler, error) {
	if config.ApiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(config.ApiKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	cli := openai.NewClient(opts...)
	return &Handler{client: &cli, store: st}, nil
}

// Handle answers in persona, given the recent history of the channel the
// message arrived on.
func (h *Handler) Handle(ctx context.Context, req *model.Request, _ []string) (*model.Response, error) {
	persona, err := h.store.Persona(ctx)
	if err != nil {
		return nil, fmt.Errorf("load persona: %w", err)
	}

	history, err := h.store.Recent(ctx, req.SourceSystem, req.ChannelID, historyDepth)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	completion, err := h.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(persona.Model),
		MaxTokens: openai.Int(persona.TokenLimit),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(persona)),
			openai.UserMessage(transcript(history, req)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	if reply == "" {
		return nil, nil
	}
	return model.NewResponse(reply), nil
}

func systemPrompt(persona *store.Persona) string {
	var b strings.Builder
	b.WriteString(persona.InitialPrompt)
	for _, rule := range persona.Rules {
		b.WriteString("\n- ")
		b.WriteString(rule)
	}
	return b.String()
}

func transcript(history []store.ChatLine, req *model.Request) string {
	var b strings.Builder
	for _, line := range history {
		fmt.Fprintf(&b, "%s: %s\n", line.Username, line.Message)
	}
	fmt.Fprintf(&b, "%s: %s", req.Username, req.Message)
	return b.String()
}
