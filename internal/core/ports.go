package core

import (
	"context"
	"time"
)

// MailReader defines the interface for fetching mail from a provider
type MailReader interface {
	// FetchUnread retrieves unread messages from a sender received after since
	FetchUnread(ctx context.Context, sender string, since time.Time) ([]Email, error)
}

// CompletionRequest is one text completion call to an LLM
type CompletionRequest struct {
	System string
	Prompt string
}

// CompletionResult is the text returned by an LLM call
type CompletionResult struct {
	Text  string
	Model string
	Usage TokenUsage
}

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete runs one completion and returns the raw response text
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)
}

// VisionClient is implemented by LLM clients that can read images
type VisionClient interface {
	// ExtractImageText extracts visible text from the given image URLs
	ExtractImageText(ctx context.Context, imageURLs []string) (*VisionResult, TokenUsage, error)
}

// PipelineRunner executes the multi-stage analysis pipeline
type PipelineRunner interface {
	Run(ctx context.Context, emails []Email, req *AnalysisRequest, progress ProgressFunc) (*PipelineResult, error)
}

// ProgressFunc receives stage transition notifications during an analysis
type ProgressFunc func(stage string, status string)

// HistoryRepository defines the interface for persisting analysis results
type HistoryRepository interface {
	// Save persists an analysis record
	Save(ctx context.Context, record *AnalysisRecord) error

	// List returns a paginated history listing, newest first
	List(ctx context.Context, limit, offset int) (*HistoryPage, error)

	// Get returns a single record by id, or ErrNotFound
	Get(ctx context.Context, id string) (*AnalysisRecord, error)
}

// CacheRepository defines the interface for caching analysis results
type CacheRepository interface {
	// Get retrieves a cached entry for a request fingerprint
	Get(ctx context.Context, fingerprint string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, fingerprint string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// Notifier delivers a finished analysis out of band
type Notifier interface {
	SendDigest(ctx context.Context, record *AnalysisRecord) error
}
