package agent

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/vinayprograms/speckit/errors"
)

// Default per-million-token rates used for cost accounting.
const (
	anthropicInputPerMTok  = 3.0
	anthropicOutputPerMTok = 15.0
)

// AnthropicInvoker runs tasks against the Anthropic Messages API.
type AnthropicInvoker struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	sessions  *sessionStore
}

// AnthropicOptions configures an AnthropicInvoker.
type AnthropicOptions struct {
	APIKey    string
	BaseURL   string // optional custom endpoint
	Model     string
	MaxTokens int
}

// NewAnthropicInvoker creates an invoker backed by the official SDK.
func NewAnthropicInvoker(o AnthropicOptions) (*AnthropicInvoker, error) {
	if o.APIKey == "" {
		return nil, errors.InvalidInput("api key is required for anthropic")
	}
	if o.Model == "" {
		return nil, errors.InvalidInput("model is required for anthropic")
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = defaultMaxTokens
	}

	opts := []option.RequestOption{
		option.WithAPIKey(o.APIKey),
	}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return &AnthropicInvoker{
		client:    &client,
		model:     o.Model,
		maxTokens: o.MaxTokens,
		sessions:  newSessionStore(),
	}, nil
}

// Invoke implements the Invoker interface.
func (a *AnthropicInvoker) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	sess := a.sessions.resume(req.ResumeSessionID)
	if err := checkLimits(sess, req); err != nil {
		return nil, err
	}

	model := a.model
	if req.Model != "" {
		model = req.Model
	}

	req.emit(Event{Type: EventInit, SessionID: sess.id, Message: model})

	messages := make([]anthropic.MessageParam, 0, len(sess.history)+1)
	for _, m := range sess.history {
		switch m.role {
		case "user":
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(m.content),
			))
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(m.content),
			))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(
		anthropic.NewTextBlock(req.Prompt),
	))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(a.maxTokens),
		Messages:  messages,
	}
	if system := systemText(req); system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	var resp *anthropic.Message
	var err error
	backoff := sdkInitBackoff

	for attempt := 0; attempt <= sdkMaxRetries; attempt++ {
		resp, err = a.client.Messages.New(ctx, params)
		if err == nil {
			break
		}

		if isBillingError(err) {
			return nil, errors.FatalAgent("anthropic billing failure", errors.WithCause(err))
		}
		if !isRetryableError(err) {
			return nil, errors.FatalAgent("anthropic request failed", errors.WithCause(err))
		}
		if attempt == sdkMaxRetries {
			return nil, errors.TransientAgent("anthropic still failing after retries", errors.WithCause(err))
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "anthropic request interrupted")
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	inputTokens := int(resp.Usage.InputTokens)
	outputTokens := int(resp.Usage.OutputTokens)
	cost := tokenCost(inputTokens, outputTokens, anthropicInputPerMTok, anthropicOutputPerMTok)
	sess.record(req.Prompt, text, cost)

	req.emit(Event{Type: EventResult, SessionID: sess.id, Message: text, CostUSD: cost})

	return &InvokeResult{
		ResultText:   text,
		SessionID:    sess.id,
		CostUSD:      cost,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		NumTurns:     sess.turns,
	}, nil
}
