// Package gmail implements the core.MailReader port on the Gmail REST API.
package gmail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/briefler/briefler/internal/config"
	"github.com/briefler/briefler/internal/core"
	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

const gmailUserID = "me"

// Client is a Gmail implementation of the MailReader interface
type Client struct {
	svc            *gmailapi.Service
	logger         *zap.Logger
	pageSize       int64
	maxPages       int
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewClient creates a new Gmail client
func NewClient(svc *gmailapi.Service, cfg config.GmailConfig, logger *zap.Logger) *Client {
	return &Client{
		svc:            svc,
		logger:         logger,
		pageSize:       cfg.PageSize,
		maxPages:       cfg.MaxPages,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
	}
}

// buildQuery assembles the Gmail search expression for one sender.
// Gmail's "after:" operator takes a date in the account's local time.
func buildQuery(sender string, since time.Time) string {
	return fmt.Sprintf("from:%s is:unread after:%s", sender, since.Format("2006/01/02"))
}

// FetchUnread retrieves unread messages from a sender received after since
func (c *Client) FetchUnread(ctx context.Context, sender string, since time.Time) ([]core.Email, error) {
	query := buildQuery(sender, since)
	c.logger.Debug("Listing messages", zap.String("query", query))

	ids, err := c.listMessageIDs(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	emails := make([]core.Email, 0, len(ids))
	for _, id := range ids {
		msg, err := c.getMessage(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch message %s: %w", id, err)
		}
		emails = append(emails, decodeMessage(msg))
	}

	c.logger.Info("Fetched unread messages",
		zap.String("sender", sender),
		zap.Int("count", len(emails)))
	return emails, nil
}

// listMessageIDs pages through the message listing up to maxPages
func (c *Client) listMessageIDs(ctx context.Context, query string) ([]string, error) {
	var ids []string
	pageToken := ""

	for page := 0; page < c.maxPages; page++ {
		var resp *gmailapi.ListMessagesResponse
		err := c.withRetry(ctx, "messages.list", func() error {
			call := c.svc.Users.Messages.List(gmailUserID).
				Q(query).
				MaxResults(c.pageSize).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var callErr error
			resp, callErr = call.Do()
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, msg := range resp.Messages {
			ids = append(ids, msg.Id)
		}

		if resp.NextPageToken == "" || len(resp.Messages) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	return ids, nil
}

// getMessage fetches one message in full format
func (c *Client) getMessage(ctx context.Context, id string) (*gmailapi.Message, error) {
	var msg *gmailapi.Message
	err := c.withRetry(ctx, "messages.get", func() error {
		var callErr error
		msg, callErr = c.svc.Users.Messages.Get(gmailUserID, id).
			Format("full").
			Context(ctx).
			Do()
		return callErr
	})
	return msg, err
}

// withRetry runs fn with exponential backoff on retryable API errors
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := c.initialBackoff
	var err error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying Gmail API call",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			// Exponential backoff, capped.
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("retries exceeded for %s: %w", op, err)
}

// isRetryable reports whether err is a rate limit or transient server error
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := err.(*googleapi.Error); ok {
		if apiErr.Code == 429 || apiErr.Code >= 500 {
			return true
		}
		if apiErr.Code == 403 {
			msg := apiErr.Message
			return strings.Contains(msg, "rateLimitExceeded") ||
				strings.Contains(msg, "userRateLimitExceeded") ||
				strings.Contains(msg, "Rate Limit Exceeded")
		}
		return false
	}
	// Transport-level failures (resets, timeouts) are worth one more try
	return strings.Contains(err.Error(), "connection reset") ||
		strings.Contains(err.Error(), "timeout")
}
