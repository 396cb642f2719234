package agent

import (
	"context"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vinayprograms/speckit/errors"
)

const (
	geminiInputPerMTok  = 1.25
	geminiOutputPerMTok = 10.0
)

// GeminiInvoker runs tasks against the Google Gemini API.
type GeminiInvoker struct {
	client    *genai.Client
	modelName string
	maxTokens int
	sessions  *sessionStore
}

// GeminiOptions configures a GeminiInvoker.
type GeminiOptions struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// NewGeminiInvoker creates an invoker backed by the official SDK.
func NewGeminiInvoker(o GeminiOptions) (*GeminiInvoker, error) {
	if o.APIKey == "" {
		return nil, errors.InvalidInput("api key is required for gemini")
	}
	if o.Model == "" {
		return nil, errors.InvalidInput("model is required for gemini")
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = defaultMaxTokens
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(o.APIKey))
	if err != nil {
		return nil, errors.Internal("creating gemini client", errors.WithCause(err))
	}

	return &GeminiInvoker{
		client:    client,
		modelName: o.Model,
		maxTokens: o.MaxTokens,
		sessions:  newSessionStore(),
	}, nil
}

// Close releases the underlying client.
func (a *GeminiInvoker) Close() error {
	return a.client.Close()
}

// Invoke implements the Invoker interface.
func (a *GeminiInvoker) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	sess := a.sessions.resume(req.ResumeSessionID)
	if err := checkLimits(sess, req); err != nil {
		return nil, err
	}

	modelName := a.modelName
	if req.Model != "" {
		modelName = req.Model
	}

	req.emit(Event{Type: EventInit, SessionID: sess.id, Message: modelName})

	model := a.client.GenerativeModel(modelName)
	maxTokens := int32(a.maxTokens)
	model.MaxOutputTokens = &maxTokens
	if system := systemText(req); system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	cs := model.StartChat()
	for _, m := range sess.history {
		role := "user"
		if m.role == "assistant" {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.content)},
		})
	}

	var resp *genai.GenerateContentResponse
	var err error
	backoff := sdkInitBackoff

	for attempt := 0; attempt <= sdkMaxRetries; attempt++ {
		resp, err = cs.SendMessage(ctx, genai.Text(req.Prompt))
		if err == nil {
			break
		}

		if isBillingError(err) {
			return nil, errors.FatalAgent("gemini billing failure", errors.WithCause(err))
		}
		if !isRetryableError(err) {
			return nil, errors.FatalAgent("gemini request failed", errors.WithCause(err))
		}
		if attempt == sdkMaxRetries {
			return nil, errors.TransientAgent("gemini still failing after retries", errors.WithCause(err))
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "gemini request interrupted")
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}

	var text string
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text += string(t)
			}
		}
	}

	var inputTokens, outputTokens int
	if resp.UsageMetadata != nil {
		inputTokens = int(resp.UsageMetadata.PromptTokenCount)
		outputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	cost := tokenCost(inputTokens, outputTokens, geminiInputPerMTok, geminiOutputPerMTok)
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
