// Package pipeline runs the sequential LLM analysis pipeline:
// cleanup, an optional vision pass over embedded images, and the final
// analysis. Each stage feeds its structured output into the next.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/briefler/briefler/internal/core"
	"github.com/briefler/briefler/internal/images"
	"github.com/briefler/briefler/internal/utils"
	"go.uber.org/zap"
)

// Pipeline implements core.PipelineRunner over an LLM client
type Pipeline struct {
	llm           core.LLMClient
	extractor     *images.Extractor
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	visionEnabled bool
	maxImages     int
	maxBodySize   int
}

// NewPipeline creates a new analysis pipeline
func NewPipeline(
	llm core.LLMClient,
	extractor *images.Extractor,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	visionEnabled bool,
	maxImages int,
	maxBodySize int,
) *Pipeline {
	return &Pipeline{
		llm:           llm,
		extractor:     extractor,
		textProcessor: textProcessor,
		logger:        logger,
		visionEnabled: visionEnabled,
		maxImages:     maxImages,
		maxBodySize:   maxBodySize,
	}
}

// stageEmail is the JSON shape of one email as handed to the cleanup stage
type stageEmail struct {
	Subject   string   `json:"subject"`
	Sender    string   `json:"sender"`
	Timestamp string   `json:"timestamp"`
	Body      string   `json:"body"`
	ImageURLs []string `json:"image_urls"`
}

// Run executes the pipeline stages in order. The vision stage is included
// only when vision is enabled, image URLs were found, and the configured
// LLM client supports image input.
func (p *Pipeline) Run(ctx context.Context, emails []core.Email, req *core.AnalysisRequest, progress core.ProgressFunc) (*core.PipelineResult, error) {
	if progress == nil {
		progress = func(string, string) {}
	}

	var usage core.TokenUsage

	// Stage inputs: decoded bodies plus image references from HTML parts
	inputs, imageURLs := p.prepareInputs(emails)

	// Stage 1: cleanup
	progress("cleanup", fmt.Sprintf("Cleaning %d messages", len(inputs)))
	cleanup, err := p.runCleanup(ctx, inputs, &usage)
	if err != nil {
		return nil, fmt.Errorf("cleanup stage failed: %w", err)
	}
	p.logger.Debug("Cleanup stage complete", zap.Int("emails", cleanup.TotalCount))

	// Stage 2: vision, conditional
	var vision *core.VisionResult
	if p.includeVision(imageURLs) {
		progress("vision", fmt.Sprintf("Extracting text from %d images", len(imageURLs)))
		vision, err = p.runVision(ctx, imageURLs, &usage)
		if err != nil {
			// Vision failures degrade the summary but should not abort it
			p.logger.Warn("Vision stage failed, continuing without image text", zap.Error(err))
			vision = nil
		}
	}

	// Stage 3: analysis
	progress("analysis", "Generating summary")
	output, result, err := p.runAnalysis(ctx, cleanup, vision, req.Language, &usage)
	if err != nil {
		return nil, fmt.Errorf("analysis stage failed: %w", err)
	}

	return &core.PipelineResult{
		Output: output,
		Usage:  usage,
		Result: result,
	}, nil
}

// prepareInputs builds the cleanup stage payload and collects image URLs
func (p *Pipeline) prepareInputs(emails []core.Email) ([]stageEmail, []string) {
	inputs := make([]stageEmail, 0, len(emails))
	var urls []string
	seen := make(map[string]bool)

	for _, email := range emails {
		body := email.TextBody
		if body == "" {
			body = email.HTMLBody
		}
		body = p.textProcessor.ProcessText(body, p.maxBodySize)

		var emailURLs []string
		for _, ref := range p.extractor.FromHTML(email.HTMLBody, email.ID) {
			emailURLs = append(emailURLs, ref.ExternalURL)
			if !seen[ref.ExternalURL] && (p.maxImages <= 0 || len(urls) < p.maxImages) {
				seen[ref.ExternalURL] = true
				urls = append(urls, ref.ExternalURL)
			}
		}

		inputs = append(inputs, stageEmail{
			Subject:   email.Subject,
			Sender:    email.From,
			Timestamp: email.Date.Format(time.RFC3339),
			Body:      body,
			ImageURLs: emailURLs,
		})
	}

	return inputs, urls
}

// includeVision decides whether the vision stage joins the run
func (p *Pipeline) includeVision(imageURLs []string) bool {
	if !p.visionEnabled || len(imageURLs) == 0 {
		return false
	}
	if _, ok := p.llm.(core.VisionClient); !ok {
		p.logger.Debug("LLM provider does not support vision, skipping stage")
		return false
	}
	return true
}

func (p *Pipeline) runCleanup(ctx context.Context, inputs []stageEmail, usage *core.TokenUsage) (*core.CleanupResult, error) {
	payload, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stage input: %w", err)
	}

	resp, err := p.llm.Complete(ctx, &core.CompletionRequest{
		System: systemPrompt,
		Prompt: fmt.Sprintf(cleanupPromptFormat, payload),
	})
	if err != nil {
		return nil, err
	}
	usage.Add(resp.Usage)

	var result core.CleanupResult
	if err := json.Unmarshal([]byte(utils.ExtractJSONObject(resp.Text)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse cleanup response as JSON: %w", err)
	}
	if result.TotalCount == 0 {
		result.TotalCount = len(result.Emails)
	}
	return &result, nil
}

func (p *Pipeline) runVision(ctx context.Context, imageURLs []string, usage *core.TokenUsage) (*core.VisionResult, error) {
	vc := p.llm.(core.VisionClient)
	result, visionUsage, err := vc.ExtractImageText(ctx, imageURLs)
	if err != nil {
		return nil, err
	}
	usage.Add(visionUsage)

	p.logger.Debug("Vision stage complete",
		zap.Int("images_processed", result.TotalImagesProcessed),
		zap.Int("images_with_text", result.ImagesWithText))
	return result, nil
}

func (p *Pipeline) runAnalysis(ctx context.Context, cleanup *core.CleanupResult, vision *core.VisionResult, lang string, usage *core.TokenUsage) (*core.AnalysisOutput, string, error) {
	cleanupJSON, err := json.Marshal(cleanup)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal cleanup result: %w", err)
	}

	visionContext := ""
	if vision != nil {
		visionJSON, err := json.Marshal(vision)
		if err == nil {
			visionContext = fmt.Sprintf(visionContextFormat, visionJSON)
		}
	}

	resp, err := p.llm.Complete(ctx, &core.CompletionRequest{
		System: systemPrompt,
		Prompt: fmt.Sprintf(analysisPromptFormat, lang, cleanupJSON, visionContext),
	})
	if err != nil {
		return nil, "", err
	}
	usage.Add(resp.Usage)

	var output core.AnalysisOutput
	if err := json.Unmarshal([]byte(utils.ExtractJSONObject(resp.Text)), &output); err != nil {
		return nil, "", fmt.Errorf("failed to parse analysis response as JSON: %w", err)
	}

	result := output.SummaryText
	if result == "" {
		result = resp.Text
	}
	return &output, result, nil
}
