package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/briefler/briefler/internal/core"
	"github.com/briefler/briefler/internal/images"
	"github.com/briefler/briefler/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const cleanupJSON = `{
	"emails": [{
		"subject": "Quarterly report",
		"sender": "alice@example.com",
		"timestamp": "2026-08-20T09:00:00Z",
		"body": "The report is attached.",
		"image_urls": []
	}],
	"total_count": 1
}`

const analysisJSON = `{
	"total_count": 1,
	"email_summaries": [{
		"subject": "Quarterly report",
		"sender": "alice@example.com",
		"timestamp": "2026-08-20T09:00:00Z",
		"key_points": ["report attached"],
		"action_items": ["review report"],
		"has_deadline": false
	}],
	"action_items": ["review report"],
	"priority_assessment": "Medium",
	"summary_text": "One email about the quarterly report."
}`

// fakeLLM replays canned responses in call order
type fakeLLM struct {
	responses []string
	calls     int
	prompts   []string
}

func (f *fakeLLM) Complete(ctx context.Context, req *core.CompletionRequest) (*core.CompletionResult, error) {
	f.prompts = append(f.prompts, req.Prompt)
	resp := f.responses[f.calls]
	f.calls++
	return &core.CompletionResult{
		Text:  resp,
		Model: "fake",
		Usage: core.TokenUsage{TotalTokens: 10, PromptTokens: 8, CompletionTokens: 2},
	}, nil
}

// fakeVisionLLM adds image support on top of fakeLLM
type fakeVisionLLM struct {
	fakeLLM
	visionCalls int
	visionErr   error
}

func (f *fakeVisionLLM) ExtractImageText(ctx context.Context, imageURLs []string) (*core.VisionResult, core.TokenUsage, error) {
	f.visionCalls++
	if f.visionErr != nil {
		return nil, core.TokenUsage{}, f.visionErr
	}
	return &core.VisionResult{
		ExtractedTexts: []core.ExtractedImageText{{
			ImageURL:      imageURLs[0],
			ExtractedText: "Sale ends Friday",
			HasText:       true,
		}},
		TotalImagesProcessed: len(imageURLs),
		ImagesWithText:       1,
	}, core.TokenUsage{TotalTokens: 5, PromptTokens: 4, CompletionTokens: 1}, nil
}

func newTestPipeline(llm core.LLMClient, visionEnabled bool) *Pipeline {
	logger := zap.NewNop()
	return NewPipeline(
		llm,
		images.NewExtractor(nil, 10, logger),
		utils.NewTextProcessor(logger),
		logger,
		visionEnabled,
		8,
		4096,
	)
}

func textEmail() core.Email {
	return core.Email{
		ID:       "m1",
		From:     "alice@example.com",
		Subject:  "Quarterly report",
		Date:     time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
		TextBody: "The report is attached.",
	}
}

func htmlEmailWithImage() core.Email {
	email := textEmail()
	email.HTMLBody = `<p>See banner</p><img src="https://cdn.example.com/banner.png">`
	return email
}

func TestRunTextOnly(t *testing.T) {
	llm := &fakeLLM{responses: []string{cleanupJSON, analysisJSON}}
	p := newTestPipeline(llm, true)

	result, err := p.Run(context.Background(), []core.Email{textEmail()},
		&core.AnalysisRequest{Language: "en"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, llm.calls)
	assert.Equal(t, "One email about the quarterly report.", result.Result)
	require.NotNil(t, result.Output)
	assert.Equal(t, 1, result.Output.TotalCount)
	assert.Equal(t, []string{"review report"}, result.Output.ActionItems)
	assert.Equal(t, 20, result.Usage.TotalTokens)
}

func TestRunIncludesVisionStage(t *testing.T) {
	llm := &fakeVisionLLM{fakeLLM: fakeLLM{responses: []string{cleanupJSON, analysisJSON}}}
	p := newTestPipeline(llm, true)

	result, err := p.Run(context.Background(), []core.Email{htmlEmailWithImage()},
		&core.AnalysisRequest{Language: "en"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, llm.visionCalls)
	// Cleanup and analysis usage plus the vision call
	assert.Equal(t, 25, result.Usage.TotalTokens)
	// Vision output is handed to the analysis stage
	assert.Contains(t, llm.prompts[1], "Sale ends Friday")
}

func TestRunSkipsVisionWhenDisabled(t *testing.T) {
	llm := &fakeVisionLLM{fakeLLM: fakeLLM{responses: []string{cleanupJSON, analysisJSON}}}
	p := newTestPipeline(llm, false)

	_, err := p.Run(context.Background(), []core.Email{htmlEmailWithImage()},
		&core.AnalysisRequest{Language: "en"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, llm.visionCalls)
}

func TestRunSkipsVisionWhenClientCannot(t *testing.T) {
	llm := &fakeLLM{responses: []string{cleanupJSON, analysisJSON}}
	p := newTestPipeline(llm, true)

	_, err := p.Run(context.Background(), []core.Email{htmlEmailWithImage()},
		&core.AnalysisRequest{Language: "en"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, llm.calls)
}

func TestRunSkipsVisionWithoutImages(t *testing.T) {
	llm := &fakeVisionLLM{fakeLLM: fakeLLM{responses: []string{cleanupJSON, analysisJSON}}}
	p := newTestPipeline(llm, true)

	_, err := p.Run(context.Background(), []core.Email{textEmail()},
		&core.AnalysisRequest{Language: "en"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, llm.visionCalls)
}

func TestRunContinuesOnVisionFailure(t *testing.T) {
	llm := &fakeVisionLLM{
		fakeLLM:   fakeLLM{responses: []string{cleanupJSON, analysisJSON}},
		visionErr: assert.AnError,
	}
	p := newTestPipeline(llm, true)

	result, err := p.Run(context.Background(), []core.Email{htmlEmailWithImage()},
		&core.AnalysisRequest{Language: "en"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, llm.visionCalls)
	assert.Equal(t, "One email about the quarterly report.", result.Result)
}

func TestRunParsesFencedJSON(t *testing.T) {
	fenced := "Here is the result:\n```json\n" + analysisJSON + "\n```"
	llm := &fakeLLM{responses: []string{cleanupJSON, fenced}}
	p := newTestPipeline(llm, false)

	result, err := p.Run(context.Background(), []core.Email{textEmail()},
		&core.AnalysisRequest{Language: "en"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "One email about the quarterly report.", result.Result)
}

func TestRunReportsStageProgress(t *testing.T) {
	llm := &fakeLLM{responses: []string{cleanupJSON, analysisJSON}}
	p := newTestPipeline(llm, false)

	var stages []string
	_, err := p.Run(context.Background(), []core.Email{textEmail()},
		&core.AnalysisRequest{Language: "en"}, func(stage, status string) {
			stages = append(stages, stage)
		})

	require.NoError(t, err)
	assert.Equal(t, []string{"cleanup", "analysis"}, stages)
}

func TestPrepareInputsFallsBackToHTMLBody(t *testing.T) {
	p := newTestPipeline(&fakeLLM{}, false)

	email := core.Email{ID: "m1", HTMLBody: "<p>only html</p>"}
	inputs, _ := p.prepareInputs([]core.Email{email})

	require.Len(t, inputs, 1)
	assert.Contains(t, inputs[0].Body, "only html")
}

func TestPrepareInputsDeduplicatesImageURLs(t *testing.T) {
	p := newTestPipeline(&fakeLLM{}, true)

	html := `<img src="https://cdn.example.com/a.png"><img src="https://cdn.example.com/a.png">`
	first := core.Email{ID: "m1", HTMLBody: html}
	second := core.Email{ID: "m2", HTMLBody: html}

	_, urls := p.prepareInputs([]core.Email{first, second})
	assert.Equal(t, []string{"https://cdn.example.com/a.png"}, urls)
}
