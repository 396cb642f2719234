package agent

import (
	"context"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/vinayprograms/speckit/errors"
)

const (
	openaiInputPerMTok  = 2.5
	openaiOutputPerMTok = 10.0
)

// OpenAIInvoker runs tasks against the OpenAI Chat Completions API.
type OpenAIInvoker struct {
	client    *openai.Client
	model     string
	maxTokens int
	sessions  *sessionStore
}

// OpenAIOptions configures an OpenAIInvoker.
type OpenAIOptions struct {
	APIKey    string
	BaseURL   string // optional custom endpoint
	Model     string
	MaxTokens int
}

// NewOpenAIInvoker creates an invoker backed by the official SDK.
func NewOpenAIInvoker(o OpenAIOptions) (*OpenAIInvoker, error) {
	if o.APIKey == "" {
		return nil, errors.InvalidInput("api key is required for openai")
	}
	if o.Model == "" {
		return nil, errors.InvalidInput("model is required for openai")
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

	client := openai.NewClient(opts...)

	return &OpenAIInvoker{
		client:    &client,
		model:     o.Model,
		maxTokens: o.MaxTokens,
		sessions:  newSessionStore(),
	}, nil
}

// Invoke implements the Invoker interface.
func (a *OpenAIInvoker) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	sess := a.sessions.resume(req.ResumeSessionID)
	if err := checkLimits(sess, req); err != nil {
		return nil, err
	}

	model := a.model
	if req.Model != "" {
		model = req.Model
	}

	req.emit(Event{Type: EventInit, SessionID: sess.id, Message: model})

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(sess.history)+2)
	if system := systemText(req); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, m := range sess.history {
		switch m.role {
		case "user":
			messages = append(messages, openai.UserMessage(m.content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.content))
		}
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(model),
		Messages:  messages,
		MaxTokens: openai.Int(int64(a.maxTokens)),
	}

	var resp *openai.ChatCompletion
	var err error
	backoff := sdkInitBackoff

	for attempt := 0; attempt <= sdkMaxRetries; attempt++ {
		resp, err = a.client.Chat.Completions.New(ctx, params)
		if err == nil {
			break
		}

		if isBillingError(err) {
			return nil, errors.FatalAgent("openai billing failure", errors.WithCause(err))
		}
		if !isRetryableError(err) {
			return nil, errors.FatalAgent("openai request failed", errors.WithCause(err))
		}
		if attempt == sdkMaxRetries {
			return nil, errors.TransientAgent("openai still failing after retries", errors.WithCause(err))
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "openai request interrupted")
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	inputTokens := int(resp.Usage.PromptTokens)
	outputTokens := int(resp.Usage.CompletionTokens)
	cost := tokenCost(inputTokens, outputTokens, openaiInputPerMTok, openaiOutputPerMTok)
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
