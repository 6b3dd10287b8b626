package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/briefler/briefler/internal/core"
	"github.com/briefler/briefler/internal/utils"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// maxImageBytes bounds how much of a remote image gets downloaded for the
// vision stage
const maxImageBytes = 8 << 20

// GeminiClient implements the LLMClient and VisionClient interfaces using Google Gemini
type GeminiClient struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	modelName  string
	logger     *zap.Logger
	httpClient *http.Client
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiClient{
		client:     client,
		model:      model,
		modelName:  modelName,
		logger:     logger,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Complete runs one completion and returns the raw response text
func (c *GeminiClient) Complete(ctx context.Context, req *core.CompletionRequest) (*core.CompletionResult, error) {
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + prompt
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	return &core.CompletionResult{
		Text:  text,
		Model: c.modelName,
		Usage: usageFrom(resp),
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

// ExtractImageText extracts visible text from the given image URLs.
// Gemini takes inline image bytes, so each URL is downloaded first.
func (c *GeminiClient) ExtractImageText(ctx context.Context, imageURLs []string) (*core.VisionResult, core.TokenUsage, error) {
	blobs, fetched := c.fetchAll(ctx, imageURLs)
	if len(fetched) == 0 {
		return nil, core.TokenUsage{}, fmt.Errorf("no images could be fetched")
	}

	// The URL list must match the attached images one to one, so it is
	// built from the fetched set rather than the requested one
	parts := make([]genai.Part, 0, len(blobs)+1)
	parts = append(parts, genai.Text(visionPrompt+"\n\nImage URLs in order:\n"+urlList(fetched)))
	parts = append(parts, blobs...)

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, core.TokenUsage{}, fmt.Errorf("failed to generate vision content with Gemini: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, core.TokenUsage{}, err
	}
	usage := usageFrom(resp)

	var result core.VisionResult
	if err := json.Unmarshal([]byte(utils.ExtractJSONObject(text)), &result); err != nil {
		return nil, usage, fmt.Errorf("failed to parse vision response as JSON: %w", err)
	}
	if result.TotalImagesProcessed == 0 {
		result.TotalImagesProcessed = len(fetched)
	}
	return &result, usage, nil
}

// fetchAll downloads the images that can be fetched and returns their
// inline parts alongside the URLs they came from, in matching order
func (c *GeminiClient) fetchAll(ctx context.Context, imageURLs []string) ([]genai.Part, []string) {
	blobs := make([]genai.Part, 0, len(imageURLs))
	fetched := make([]string, 0, len(imageURLs))
	for _, url := range imageURLs {
		format, data, err := c.fetchImage(ctx, url)
		if err != nil {
			c.logger.Warn("Skipping unfetchable image", zap.String("url", url), zap.Error(err))
			continue
		}
		blobs = append(blobs, genai.ImageData(format, data))
		fetched = append(fetched, url)
	}
	return blobs, fetched
}

// fetchImage downloads an image and reports its genai format suffix
func (c *GeminiClient) fetchImage(ctx context.Context, url string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", nil, fmt.Errorf("not an image: %s", contentType)
	}
	format := strings.TrimPrefix(strings.Split(contentType, ";")[0], "image/")
	return format, data, nil
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text parts in Gemini response")
	}
	return sb.String(), nil
}

func usageFrom(resp *genai.GenerateContentResponse) core.TokenUsage {
	if resp.UsageMetadata == nil {
		return core.TokenUsage{}
	}
	return core.TokenUsage{
		TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
	}
}

func urlList(urls []string) string {
	out := ""
	for i, u := range urls {
		out += fmt.Sprintf("%d. %s\n", i+1, u)
	}
	return out
}
