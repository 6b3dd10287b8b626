package images

import (
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Reference points to an external image found in an email body
type Reference struct {
	MessageID   string `json:"message_id"`
	ImageIndex  int    `json:"image_index"`
	ExternalURL string `json:"external_url"`
}

var imgSrcPattern = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["'][^>]*>`)

// Extractor finds external image URLs in HTML email content.
// Only HTTPS URLs are considered; inline and cid-referenced images are
// skipped. An optional host allowlist restricts which domains qualify.
type Extractor struct {
	allowedDomains []string
	maxPerMessage  int
	logger         *zap.Logger
}

// NewExtractor creates a new image extractor
func NewExtractor(allowedDomains []string, maxPerMessage int, logger *zap.Logger) *Extractor {
	normalized := make([]string, 0, len(allowedDomains))
	for _, domain := range allowedDomains {
		d := strings.ToLower(strings.TrimSpace(domain))
		if d != "" {
			normalized = append(normalized, d)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Image domain allowlist enabled", zap.Strings("domains", normalized))
	}

	return &Extractor{
		allowedDomains: normalized,
		maxPerMessage:  maxPerMessage,
		logger:         logger,
	}
}

// FromHTML scans HTML content for external image URLs
func (e *Extractor) FromHTML(htmlContent, messageID string) []Reference {
	if htmlContent == "" {
		return nil
	}

	matches := imgSrcPattern.FindAllStringSubmatch(htmlContent, -1)
	if len(matches) == 0 {
		return nil
	}

	var refs []Reference
	index := 1
	for _, m := range matches {
		src := strings.TrimSpace(m[1])
		if !strings.HasPrefix(src, "https://") {
			continue
		}
		if !e.validURL(src) {
			continue
		}

		refs = append(refs, Reference{
			MessageID:   messageID,
			ImageIndex:  index,
			ExternalURL: src,
		})
		index++

		if e.maxPerMessage > 0 && len(refs) >= e.maxPerMessage {
			break
		}
	}

	if len(refs) > 0 && e.logger != nil {
		e.logger.Debug("Extracted image references",
			zap.String("message_id", messageID),
			zap.Int("count", len(refs)))
	}

	return refs
}

// validURL checks URL syntax and the optional host allowlist
func (e *Extractor) validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return false
	}

	if len(e.allowedDomains) == 0 {
		return true
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range e.allowedDomains {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
