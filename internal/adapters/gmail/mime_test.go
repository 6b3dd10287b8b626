package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
)

func encodeBody(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestDecodeMessageSinglePart(t *testing.T) {
	msg := &gmailapi.Message{
		Id:       "m1",
		ThreadId: "t1",
		Snippet:  "hello",
		Payload: &gmailapi.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: "Alice <alice@example.com>"},
				{Name: "Subject", Value: "Hello"},
				{Name: "Date", Value: "Thu, 20 Aug 2026 09:00:00 +0000"},
			},
			Body: &gmailapi.MessagePartBody{Data: encodeBody("hello world")},
		},
	}

	email := decodeMessage(msg)
	assert.Equal(t, "m1", email.ID)
	assert.Equal(t, "t1", email.ThreadID)
	assert.Equal(t, "Alice <alice@example.com>", email.From)
	assert.Equal(t, "Hello", email.Subject)
	assert.Equal(t, "hello world", email.TextBody)
	assert.Empty(t, email.HTMLBody)
	assert.Equal(t, time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC), email.Date.UTC())
}

func TestDecodeMessageMultipart(t *testing.T) {
	msg := &gmailapi.Message{
		Id: "m2",
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: "bob@example.org"},
				{Name: "Subject", Value: "Report"},
			},
			Parts: []*gmailapi.MessagePart{
				{
					MimeType: "text/plain",
					Body:     &gmailapi.MessagePartBody{Data: encodeBody("plain body")},
				},
				{
					MimeType: "text/html",
					Body:     &gmailapi.MessagePartBody{Data: encodeBody("<p>html body</p>")},
				},
			},
		},
	}

	email := decodeMessage(msg)
	assert.Equal(t, "plain body", email.TextBody)
	assert.Equal(t, "<p>html body</p>", email.HTMLBody)
}

func TestDecodeMessageNestedMultipart(t *testing.T) {
	msg := &gmailapi.Message{
		Id: "m3",
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmailapi.MessagePart{
				{
					MimeType: "multipart/alternative",
					Parts: []*gmailapi.MessagePart{
						{
							MimeType: "text/plain",
							Body:     &gmailapi.MessagePartBody{Data: encodeBody("nested plain")},
						},
					},
				},
				{
					MimeType: "application/pdf",
					Filename: "report.pdf",
					Body:     &gmailapi.MessagePartBody{Data: encodeBody("%PDF")},
				},
			},
		},
	}

	email := decodeMessage(msg)
	assert.Equal(t, "nested plain", email.TextBody)
	assert.Empty(t, email.HTMLBody, "attachments must not leak into bodies")
}

func TestDecodeMessageDefaults(t *testing.T) {
	msg := &gmailapi.Message{
		Id:           "m4",
		InternalDate: time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC).UnixMilli(),
		Payload: &gmailapi.MessagePart{
			MimeType: "text/plain",
			Body:     &gmailapi.MessagePartBody{Data: encodeBody("body")},
		},
	}

	email := decodeMessage(msg)
	assert.Equal(t, "(no subject)", email.Subject)
	assert.Equal(t, time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC), email.Date.UTC())
}

func TestDecodeMessageNoPayload(t *testing.T) {
	email := decodeMessage(&gmailapi.Message{Id: "m5", Snippet: "snip"})
	assert.Equal(t, "m5", email.ID)
	assert.Equal(t, "snip", email.Snippet)
	assert.Empty(t, email.TextBody)
}

func TestDecodePartDataPaddedFallback(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte("padded!"))
	require.Contains(t, padded, "=")

	part := &gmailapi.MessagePart{
		MimeType: "text/plain",
		Body:     &gmailapi.MessagePartBody{Data: padded},
	}
	assert.Equal(t, "padded!", decodePartData(part))
}
