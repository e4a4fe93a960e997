package extractor

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-mbox"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// FromMessage extracts Content from an RFC 5322 message. text/plain parts
// make up the body; text/html parts are used only when there is no plain
// text. An error is returned only when the header cannot be read.
func (e *Extractor) FromMessage(r io.Reader) (Content, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return Content{}, fmt.Errorf("failed to parse message: %w", err)
	}
	defer mr.Close()

	var c Content

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		c.Source = from[0].Address
	} else {
		c.Source = mr.Header.Get("From")
	}

	if subject, err := mr.Header.Subject(); err == nil {
		c.Subject = subject
	} else {
		c.Subject = mr.Header.Get("Subject")
	}

	var plain, html strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) || message.IsUnknownEncoding(err) {
				e.logger.Debug("Skipping undecodable part", zap.Error(err))
				continue
			}
			e.logger.Warn("Failed to read message part", zap.Error(err))
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, err := h.ContentType()
		if err != nil {
			contentType = "text/plain"
		}

		switch contentType {
		case "text/plain":
			if _, err := io.Copy(&plain, part.Body); err != nil {
				e.logger.Debug("Failed to read text part", zap.Error(err))
			}
			plain.WriteString("\n")
		case "text/html":
			if _, err := io.Copy(&html, part.Body); err != nil {
				e.logger.Debug("Failed to read html part", zap.Error(err))
			}
		}
	}

	c.Text = plain.String()
	if strings.TrimSpace(c.Text) == "" && html.Len() > 0 {
		page := e.FromHTMLString(html.String())
		if page.Text != PlaceholderText {
			c.Text = page.Text
		}
	}

	return e.finish(c), nil
}

// ReadMailbox calls fn with the Content of every message of an mbox file.
// Messages that cannot be parsed are logged and skipped; an error from fn
// stops the iteration and is returned.
func (e *Extractor) ReadMailbox(r io.Reader, fn func(index int, c Content) error) error {
	reader := mbox.NewReader(r)

	for i := 0; ; i++ {
		msg, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read mailbox: %w", err)
		}

		c, err := e.FromMessage(msg)
		if err != nil {
			e.logger.Warn("Skipping unparseable message", zap.Int("index", i), zap.Error(err))
			continue
		}

		if err := fn(i, c); err != nil {
			return err
		}
	}
}
