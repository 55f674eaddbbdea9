package openai

import (
	"context"
	"fmt"

	"github.com/mikey/cekfakta-ai/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is an implementation of the LLMClient interface using the
// OpenAI chat completions API, either on Azure or on api.openai.com
type OpenAIClient struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	jsonMode    bool
	logger      *zap.Logger
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	jsonMode bool,
	logger *zap.Logger,
) *OpenAIClient {
	return &OpenAIClient{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		jsonMode:    jsonMode,
		logger:      logger,
	}
}

// Generate sends the classification prompt and returns the raw answer
func (c *OpenAIClient) Generate(ctx context.Context, genReq *core.GenerationRequest) (*core.Generation, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: genReq.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: genReq.UserText,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	// Older Azure API versions reject response_format
	if c.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response from OpenAI", core.ErrUpstreamFormat)
	}

	c.logger.Debug("Chat completion received",
		zap.String("id", resp.ID),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	model := resp.Model
	if model == "" {
		model = c.modelName
	}

	return &core.Generation{
		Text:         resp.Choices[0].Message.Content,
		ModelUsed:    model,
		ProcessingID: resp.ID,
	}, nil
}
