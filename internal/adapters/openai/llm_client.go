package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/briefler/briefler/internal/core"
	"github.com/briefler/briefler/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient implements the LLMClient and VisionClient interfaces using OpenAI
type OpenAIClient struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *OpenAIClient {
	return &OpenAIClient{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Complete runs one completion and returns the raw response text
func (c *OpenAIClient) Complete(ctx context.Context, req *core.CompletionRequest) (*core.CompletionResult, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	return &core.CompletionResult{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
		Usage: core.TokenUsage{
			TotalTokens:      resp.Usage.TotalTokens,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

const visionPrompt = `Extract all visible text from the attached images.
Respond with a JSON object containing:
- extracted_texts: array of objects, one per image in order, each with:
  - image_url: string (the image URL)
  - extracted_text: string (all text found in the image, or "No text found")
  - has_text: boolean (whether any text was found)
- total_images_processed: number of images
- images_with_text: number of images that contained text

Respond only with the JSON object and nothing else.`

// ExtractImageText extracts visible text from the given image URLs using
// a single multimodal chat completion
func (c *OpenAIClient) ExtractImageText(ctx context.Context, imageURLs []string) (*core.VisionResult, core.TokenUsage, error) {
	parts := make([]openai.ChatMessagePart, 0, len(imageURLs)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: visionPrompt + "\n\nImage URLs in order:\n" + urlList(imageURLs),
	})
	for _, url := range imageURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    url,
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, core.TokenUsage{}, fmt.Errorf("failed to create vision completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, core.TokenUsage{}, fmt.Errorf("empty vision response from OpenAI")
	}

	usage := core.TokenUsage{
		TotalTokens:      resp.Usage.TotalTokens,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}

	var result core.VisionResult
	if err := json.Unmarshal([]byte(utils.ExtractJSONObject(resp.Choices[0].Message.Content)), &result); err != nil {
		return nil, usage, fmt.Errorf("failed to parse vision response as JSON: %w", err)
	}
	if result.TotalImagesProcessed == 0 {
		result.TotalImagesProcessed = len(imageURLs)
	}

	c.logger.Debug("Vision extraction complete",
		zap.Int("images", len(imageURLs)),
		zap.Int("images_with_text", result.ImagesWithText))
	return &result, usage, nil
}

func urlList(urls []string) string {
	out := ""
	for i, u := range urls {
		out += fmt.Sprintf("%d. %s\n", i+1, u)
	}
	return out
}
