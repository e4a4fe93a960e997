// Package extractor turns a rendered webmail page or a raw message into
// the text, sender and subject sent for analysis.
package extractor

import (
	"net/url"
	"strings"

	"github.com/mikey/fraudguard/internal/utils"
	"go.uber.org/zap"
)

// Placeholder values used when nothing could be extracted
const (
	PlaceholderText    = "This is a test email generated for analysis."
	PlaceholderSource  = "test@example.com"
	PlaceholderSubject = "Test email for analysis"
)

const webmailHost = "mail.google.com"

// Content is the result of an extraction
type Content struct {
	Text    string
	Source  string
	Subject string
}

// Empty reports whether no body text was found
func (c Content) Empty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// Extractor extracts Content from pages and messages
type Extractor struct {
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
}

// New creates an extractor
func New(textProcessor *utils.TextProcessor, logger *zap.Logger) *Extractor {
	return &Extractor{
		textProcessor: textProcessor,
		logger:        logger,
	}
}

// IsWebmailURL reports whether rawURL points at a supported webmail host
func IsWebmailURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), webmailHost)
}

func (e *Extractor) finish(c Content) Content {
	c.Text = e.textProcessor.Normalize(c.Text)
	c.Source = e.textProcessor.Normalize(c.Source)
	c.Subject = e.textProcessor.Normalize(c.Subject)

	if c.Text == "" {
		e.logger.Debug("No email content found, using placeholder")
		c.Text = PlaceholderText
		if c.Source == "" {
			c.Source = PlaceholderSource
		}
		if c.Subject == "" {
			c.Subject = PlaceholderSubject
		}
	}

	e.logger.Debug("Extraction finished",
		zap.Int("text_length", len(c.Text)),
		zap.Bool("source_found", c.Source != ""),
		zap.Bool("subject_found", c.Subject != ""))

	return c
}
