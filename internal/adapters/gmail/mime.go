package gmail

import (
	"encoding/base64"
	"net/mail"
	"strings"
	"time"

	"github.com/briefler/briefler/internal/core"
	gmailapi "google.golang.org/api/gmail/v1"
)

// decodeMessage converts a Gmail API message into the domain model,
// walking the MIME part tree for text/plain and text/html bodies.
func decodeMessage(msg *gmailapi.Message) core.Email {
	email := core.Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}
	if msg.Payload == nil {
		return email
	}

	email.From = headerValue(msg.Payload.Headers, "From")
	email.Subject = headerValue(msg.Payload.Headers, "Subject")
	if email.Subject == "" {
		email.Subject = "(no subject)"
	}
	email.Date = parseDate(headerValue(msg.Payload.Headers, "Date"), msg.InternalDate)

	text, html := extractBodies(msg.Payload)
	email.TextBody = text
	email.HTMLBody = html
	return email
}

// headerValue returns the first header with the given name, case-insensitively
func headerValue(headers []*gmailapi.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// parseDate parses the RFC 5322 Date header, falling back to the
// server-side internal timestamp when the header is missing or mangled
func parseDate(header string, internalDate int64) time.Time {
	if header != "" {
		if t, err := mail.ParseDate(header); err == nil {
			return t
		}
	}
	if internalDate > 0 {
		return time.UnixMilli(internalDate)
	}
	return time.Time{}
}

// extractBodies walks the part tree collecting text/plain and text/html
// content. Multipart containers recurse; attachments are skipped.
func extractBodies(part *gmailapi.MessagePart) (text, html string) {
	if part == nil {
		return "", ""
	}

	mimeType := strings.ToLower(part.MimeType)
	switch {
	case strings.HasPrefix(mimeType, "multipart/"):
		var textParts, htmlParts []string
		for _, child := range part.Parts {
			t, h := extractBodies(child)
			if t != "" {
				textParts = append(textParts, t)
			}
			if h != "" {
				htmlParts = append(htmlParts, h)
			}
		}
		return strings.Join(textParts, "\n"), strings.Join(htmlParts, "\n")

	case mimeType == "text/plain":
		return decodePartData(part), ""

	case mimeType == "text/html":
		return "", decodePartData(part)

	default:
		// A single-part message with no declared text type still carries
		// its body inline; decode it as plain text.
		if len(part.Parts) == 0 && part.Body != nil && part.Body.Data != "" && part.Filename == "" {
			return decodePartData(part), ""
		}
	}
	return "", ""
}

// decodePartData base64url-decodes a part body. Gmail emits unpadded
// base64url, but some gateways pad, so try both.
func decodePartData(part *gmailapi.MessagePart) string {
	if part.Body == nil || part.Body.Data == "" {
		return ""
	}
	data, err := base64.RawURLEncoding.DecodeString(part.Body.Data)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
	}
	return string(data)
}
