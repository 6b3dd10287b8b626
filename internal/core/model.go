package core

import (
	"time"
)

// Email represents a raw email message fetched from the mail provider
type Email struct {
	ID       string
	ThreadID string
	From     string
	Subject  string
	Date     time.Time
	Snippet  string
	TextBody string
	HTMLBody string
}

// TokenUsage holds token accounting for LLM calls
type TokenUsage struct {
	TotalTokens      int `json:"total_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Add accumulates another usage sample into u
func (u *TokenUsage) Add(other TokenUsage) {
	u.TotalTokens += other.TotalTokens
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
}

// CleanedEmail is a single email with boilerplate removed
type CleanedEmail struct {
	Subject   string    `json:"subject"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Body      string    `json:"body"`
	ImageURLs []string  `json:"image_urls"`
}

// CleanupResult is the output of the cleanup stage
type CleanupResult struct {
	Emails     []CleanedEmail `json:"emails"`
	TotalCount int            `json:"total_count"`
}

// ExtractedImageText is text recovered from a single image
type ExtractedImageText struct {
	ImageURL      string `json:"image_url"`
	ExtractedText string `json:"extracted_text"`
	HasText       bool   `json:"has_text"`
}

// VisionResult is the output of the vision stage
type VisionResult struct {
	ExtractedTexts       []ExtractedImageText `json:"extracted_texts"`
	TotalImagesProcessed int                  `json:"total_images_processed"`
	ImagesWithText       int                  `json:"images_with_text"`
}

// EmailSummary summarizes a single email
type EmailSummary struct {
	Subject     string    `json:"subject"`
	Sender      string    `json:"sender"`
	Timestamp   time.Time `json:"timestamp"`
	KeyPoints   []string  `json:"key_points"`
	ActionItems []string  `json:"action_items"`
	HasDeadline bool      `json:"has_deadline"`
}

// AnalysisOutput is the structured output of the analysis stage
type AnalysisOutput struct {
	TotalCount         int            `json:"total_count"`
	EmailSummaries     []EmailSummary `json:"email_summaries"`
	ActionItems        []string       `json:"action_items"`
	PriorityAssessment string         `json:"priority_assessment"`
	SummaryText        string         `json:"summary_text"`
}

// AnalysisRequest describes one analysis run
type AnalysisRequest struct {
	SenderEmails []string `json:"sender_emails"`
	Language     string   `json:"language"`
	Days         int      `json:"days"`
}

// AnalysisRecord is the persisted result of one analysis run
type AnalysisRecord struct {
	ID               string          `json:"analysis_id"`
	Result           string          `json:"result"`
	Structured       *AnalysisOutput `json:"structured_result,omitempty"`
	TokenUsage       *TokenUsage     `json:"token_usage,omitempty"`
	Parameters       AnalysisRequest `json:"parameters"`
	Timestamp        time.Time       `json:"timestamp"`
	ExecutionSeconds float64         `json:"execution_time_seconds"`
}

// HistoryItem is a single entry in a history listing
type HistoryItem struct {
	ID          string    `json:"analysis_id"`
	Timestamp   time.Time `json:"timestamp"`
	SenderCount int       `json:"sender_count"`
	Language    string    `json:"language"`
	Days        int       `json:"days"`
	Preview     string    `json:"preview"`
}

// HistoryPage is a paginated history listing
type HistoryPage struct {
	Items  []HistoryItem `json:"items"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// CacheEntry stores a finished analysis keyed by request fingerprint
type CacheEntry struct {
	Fingerprint string
	Record      *AnalysisRecord
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// PipelineResult bundles the pipeline output with aggregate usage
type PipelineResult struct {
	Output *AnalysisOutput
	Usage  TokenUsage
	Result string
}
