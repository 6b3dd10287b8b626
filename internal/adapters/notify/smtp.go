// Package notify delivers finished analyses as email digests over SMTP.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/briefler/briefler/internal/config"
	"github.com/briefler/briefler/internal/core"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"
)

// SMTPNotifier is an SMTP implementation of the Notifier interface
type SMTPNotifier struct {
	addr     string
	username string
	password string
	from     string
	to       []string
	logger   *zap.Logger
}

// NewSMTPNotifier creates a new SMTP digest notifier
func NewSMTPNotifier(cfg config.NotifyConfig, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		addr:     cfg.SMTPAddress,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		to:       cfg.To,
		logger:   logger,
	}
}

// SendDigest emails the analysis result to the configured recipients
func (n *SMTPNotifier) SendDigest(ctx context.Context, record *core.AnalysisRecord) error {
	if len(n.to) == 0 {
		return fmt.Errorf("no digest recipients configured")
	}

	body, err := n.buildMessage(record)
	if err != nil {
		return fmt.Errorf("failed to build digest message: %w", err)
	}

	auth := sasl.NewPlainClient("", n.username, n.password)
	if err := smtp.SendMail(n.addr, auth, n.from, n.to, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}

	n.logger.Info("Sent analysis digest",
		zap.String("analysis_id", record.ID),
		zap.Int("recipients", len(n.to)))
	return nil
}

// buildMessage assembles an RFC 5322 message with go-message, which handles
// header folding and encoded words
func (n *SMTPNotifier) buildMessage(record *core.AnalysisRecord) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(digestSubject(record))

	fromAddrs, err := mail.ParseAddressList(n.from)
	if err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	h.SetAddressList("From", fromAddrs)

	toAddrs, err := mail.ParseAddressList(strings.Join(n.to, ", "))
	if err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	h.SetAddressList("To", toAddrs)
	h.Set("Content-Type", "text/plain; charset=utf-8")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(digestBody(record))); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func digestSubject(record *core.AnalysisRecord) string {
	count := 0
	if record.Structured != nil {
		count = record.Structured.TotalCount
	}
	return fmt.Sprintf("Email digest: %d unread messages analyzed", count)
}

func digestBody(record *core.AnalysisRecord) string {
	var sb strings.Builder
	sb.WriteString(record.Result)
	sb.WriteString("\n\n")

	if record.Structured != nil && len(record.Structured.ActionItems) > 0 {
		sb.WriteString("Action items:\n")
		for _, item := range record.Structured.ActionItems {
			sb.WriteString("  - ")
			sb.WriteString(item)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Analysis %s, senders: %s, last %d days\n",
		record.ID,
		strings.Join(record.Parameters.SenderEmails, ", "),
		record.Parameters.Days))
	return sb.String()
}
