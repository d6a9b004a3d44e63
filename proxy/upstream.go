package proxy

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/papercomputeco/lens/pkg/llm"
)

// Forwarder sends a prepared request to the upstream model.
type Forwarder interface {
	Forward(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
}

// UpstreamError is a non-2xx answer from the upstream API.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %v", e.StatusCode, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// messagesForwarder forwards to the Messages API with the official SDK. The
// API key is read from ANTHROPIC_API_KEY by the SDK.
type messagesForwarder struct {
	client anthropic.Client
}

// NewMessagesForwarder creates a Forwarder for the Messages API at baseURL.
func NewMessagesForwarder(baseURL string, maxRetries int, opts ...option.RequestOption) Forwarder {
	clientOpts := []option.RequestOption{option.WithMaxRetries(maxRetries)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &messagesForwarder{client: anthropic.NewClient(clientOpts...)}
}

func (f *messagesForwarder) Forward(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	params, err := toMessageParams(req)
	if err != nil {
		return nil, err
	}

	msg, err := f.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &UpstreamError{StatusCode: apiErr.StatusCode, Err: err}
		}
		return nil, fmt.Errorf("messages api call: %w", err)
	}

	return fromMessage(msg), nil
}

// toMessageParams converts a request into SDK parameters. The system slot is
// sent as a single text block.
func toMessageParams(req *llm.ChatRequest) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(req.Messages)),
	}

	if req.System != nil && *req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: *req.System}}
	}

	for i, m := range req.Messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
		for _, b := range m.Content {
			block, err := toBlockParam(b)
			if err != nil {
				return params, fmt.Errorf("message %d: %w", i, err)
			}
			blocks = append(blocks, block)
		}

		switch m.Role {
		case llm.RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(blocks...))
		case llm.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(blocks...))
		default:
			return params, fmt.Errorf("message %d: role %q cannot be sent upstream", i, m.Role)
		}
	}

	if o := req.Options; o != nil {
		if o.Temperature != nil {
			params.Temperature = anthropic.Float(*o.Temperature)
		}
		if o.TopP != nil {
			params.TopP = anthropic.Float(*o.TopP)
		}
		if o.TopK != nil {
			params.TopK = anthropic.Int(int64(*o.TopK))
		}
		params.StopSequences = o.StopSequences
	}

	return params, nil
}

func toBlockParam(b llm.ContentBlock) (anthropic.ContentBlockParamUnion, error) {
	switch {
	case b.Type == llm.BlockTypeText:
		return anthropic.NewTextBlock(b.Text), nil
	case b.IsImage() && b.Image.Encoding == llm.EncodingBase64:
		return anthropic.NewImageBlockBase64(string(b.Image.MediaType), b.Image.Data), nil
	case b.IsImage() && b.Image.Encoding == llm.EncodingURL:
		return anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: b.Image.Data}), nil
	}
	return anthropic.ContentBlockParamUnion{}, fmt.Errorf("unsupported content block %q", b.Type)
}

func fromMessage(msg *anthropic.Message) *llm.ChatResponse {
	resp := &llm.ChatResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Role:       llm.RoleAssistant,
		Content:    []llm.ContentBlock{},
		StopReason: string(msg.StopReason),
		Usage: llm.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			resp.Content = append(resp.Content, llm.NewTextBlock(block.AsText().Text))
		}
	}
	return resp
}
