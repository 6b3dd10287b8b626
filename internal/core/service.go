package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalysisService is the core service for running email analyses
type AnalysisService struct {
	mail         MailReader
	pipeline     PipelineRunner
	history      HistoryRepository
	cache        CacheRepository
	notifier     Notifier
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	mail MailReader,
	pipeline PipelineRunner,
	history HistoryRepository,
	cache CacheRepository,
	notifier Notifier,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
) *AnalysisService {
	return &AnalysisService{
		mail:         mail,
		pipeline:     pipeline,
		history:      history,
		cache:        cache,
		notifier:     notifier,
		logger:       logger,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
	}
}

// Fingerprint derives a stable cache key from the request parameters
func Fingerprint(req *AnalysisRequest) string {
	senders := make([]string, len(req.SenderEmails))
	copy(senders, req.SenderEmails)
	sort.Strings(senders)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d", strings.Join(senders, ","), req.Language, req.Days)
	return hex.EncodeToString(h.Sum(nil))
}

// Analyze validates the request, fetches unread mail from every sender,
// runs the pipeline, and persists the resulting record. The progress
// callback may be nil.
func (s *AnalysisService) Analyze(ctx context.Context, req *AnalysisRequest, progress ProgressFunc) (*AnalysisRecord, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(string, string) {}
	}

	analysisID := uuid.NewString()
	start := time.Now()

	s.logger.Info("Starting analysis",
		zap.String("analysis_id", analysisID),
		zap.Int("senders", len(req.SenderEmails)),
		zap.String("language", req.Language),
		zap.Int("days", req.Days))

	// Check cache if enabled
	fingerprint := Fingerprint(req)
	if s.cacheEnabled && s.cache != nil {
		if entry, err := s.cache.Get(ctx, fingerprint); err == nil && entry.Record != nil {
			s.logger.Debug("Cache hit for request", zap.String("fingerprint", fingerprint))
			progress("cache", "Returning cached analysis")
			return entry.Record, nil
		}
	}

	// Fetch unread mail from every sender within the window
	since := start.AddDate(0, 0, -req.Days)
	var emails []Email
	for _, sender := range req.SenderEmails {
		progress("fetch", fmt.Sprintf("Fetching unread messages from %s", sender))
		msgs, err := s.mail.FetchUnread(ctx, sender, since)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch messages from %s: %w", sender, err)
		}
		emails = append(emails, msgs...)
	}
	s.logger.Info("Fetched unread messages",
		zap.String("analysis_id", analysisID),
		zap.Int("count", len(emails)))

	record := &AnalysisRecord{
		ID:         analysisID,
		Parameters: *req,
		Timestamp:  time.Now().UTC(),
	}

	if len(emails) == 0 {
		record.Result = "No unread messages found for the requested senders and time window."
		record.Structured = &AnalysisOutput{
			EmailSummaries:     []EmailSummary{},
			ActionItems:        []string{},
			PriorityAssessment: "None",
			SummaryText:        record.Result,
		}
	} else {
		progress("pipeline", "Executing analysis pipeline")
		result, err := s.pipeline.Run(ctx, emails, req, progress)
		if err != nil {
			return nil, fmt.Errorf("pipeline execution failed: %w", err)
		}
		record.Result = result.Result
		record.Structured = result.Output
		usage := result.Usage
		record.TokenUsage = &usage
	}

	record.ExecutionSeconds = time.Since(start).Seconds()

	if err := s.history.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist analysis %s: %w", analysisID, err)
	}

	// Update cache with result if enabled
	if s.cacheEnabled && s.cache != nil {
		entry := &CacheEntry{
			Fingerprint: fingerprint,
			Record:      record,
			CreatedAt:   time.Now(),
			ExpiresAt:   time.Now().Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	if s.notifier != nil {
		if err := s.notifier.SendDigest(ctx, record); err != nil {
			s.logger.Error("Failed to deliver digest", zap.Error(err), zap.String("analysis_id", analysisID))
		}
	}

	s.logger.Info("Analysis completed",
		zap.String("analysis_id", analysisID),
		zap.Float64("execution_seconds", record.ExecutionSeconds))

	return record, nil
}
