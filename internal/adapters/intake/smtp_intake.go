// Package intake receives mail over SMTP, has it classified through the
// relay, and forwards it with verdict headers added.
package intake

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/textproto"
	"github.com/emersion/go-smtp"
	"github.com/mikey/fraudguard/internal/config"
	"github.com/mikey/fraudguard/internal/core"
	"github.com/mikey/fraudguard/internal/extractor"
	"github.com/mikey/fraudguard/internal/protocol"
	"github.com/mikey/fraudguard/internal/trust"
	"go.uber.org/zap"
)

// Values of the status header
const (
	StatusFraud   = "fraud"
	StatusClean   = "clean"
	StatusTrusted = "trusted"
	StatusError   = "error"
)

const (
	maxMessageBytes = 30 * 1024 * 1024
	maxRecipients   = 50
	dialTimeout     = 10 * time.Second
)

// Sender delivers an action to the relay and returns its result
type Sender interface {
	Send(ctx context.Context, msg protocol.ActionMessage) (protocol.ResultMessage, error)
}

// Verdict is the outcome recorded on a message
type Verdict struct {
	Status string
	Score  float64
	Error  string
}

// SMTPIntake is an SMTP content filter in front of the relay
type SMTPIntake struct {
	sender    Sender
	extractor *extractor.Extractor
	trusted   *trust.Checker
	cfg       config.IntakeConfig
	logger    *zap.Logger
	server    *smtp.Server
}

// NewSMTPIntake creates the intake; call Start or Serve to accept connections
func NewSMTPIntake(sender Sender, ex *extractor.Extractor, trusted *trust.Checker,
	cfg config.IntakeConfig, logger *zap.Logger) *SMTPIntake {
	in := &SMTPIntake{
		sender:    sender,
		extractor: ex,
		trusted:   trusted,
		cfg:       cfg,
		logger:    logger,
	}

	in.server = smtp.NewServer(&backend{intake: in})
	in.server.Addr = cfg.ListenAddress
	in.server.Domain = "localhost"
	in.server.ReadTimeout = 30 * time.Second
	in.server.WriteTimeout = 30 * time.Second
	in.server.MaxMessageBytes = maxMessageBytes
	in.server.MaxRecipients = maxRecipients

	return in
}

// Start listens on the configured address in the background
func (in *SMTPIntake) Start() error {
	l, err := net.Listen("tcp", in.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", in.cfg.ListenAddress, err)
	}

	go func() {
		if err := in.Serve(l); err != nil {
			in.logger.Error("SMTP intake error", zap.Error(err))
		}
	}()
	return nil
}

// Serve accepts connections on l until Stop is called
func (in *SMTPIntake) Serve(l net.Listener) error {
	in.logger.Info("SMTP intake starting", zap.String("address", l.Addr().String()))

	if err := in.server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes the listener and every open session
func (in *SMTPIntake) Stop() error {
	return in.server.Close()
}

// Process classifies one raw message and returns it with verdict headers.
// A fraudulent message is rejected with a 554 error when blocking is enabled.
func (in *SMTPIntake) Process(ctx context.Context, from string, raw []byte) ([]byte, Verdict, error) {
	content, err := in.extractor.FromMessage(bytes.NewReader(raw))
	if err != nil {
		in.logger.Warn("Rejecting malformed message", zap.String("from", from), zap.Error(err))
		return nil, Verdict{}, &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}
	if content.Source == "" {
		content.Source = from
	}

	verdict := in.classify(ctx, from, content)

	if verdict.Status == StatusFraud && in.cfg.BlockFraud {
		in.logger.Info("Rejecting fraudulent email",
			zap.String("from", from),
			zap.String("sender_domain", trust.Domain(from)),
			zap.Float64("score", verdict.Score))
		return nil, verdict, &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected as fraudulent (score: %.2f)", verdict.Score),
		}
	}

	annotated, err := in.annotate(raw, verdict)
	if err != nil {
		return nil, verdict, err
	}
	return annotated, verdict, nil
}

func (in *SMTPIntake) classify(ctx context.Context, from string, content extractor.Content) Verdict {
	if in.trusted.IsTrusted(from) || in.trusted.IsTrusted(content.Source) {
		return Verdict{Status: StatusTrusted}
	}

	if in.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.cfg.Timeout)
		defer cancel()
	}

	res, err := in.sender.Send(ctx, protocol.NewAnalyzeEmail(content.Text, content.Source, content.Subject))
	if err != nil {
		in.logger.Error("Failed to analyze email", zap.String("from", from), zap.Error(err))
		return Verdict{Status: StatusError, Error: core.UserMessage(err)}
	}

	if res.Result == nil || res.Result.Error != "" {
		return Verdict{Status: StatusError, Error: res.Failed()}
	}
	if res.Result.IsFraudulent {
		return Verdict{Status: StatusFraud, Score: res.Result.Score}
	}
	return Verdict{Status: StatusClean, Score: res.Result.Score}
}

// annotate replaces any verdict headers already on the message with ours
// and keeps the body byte for byte
func (in *SMTPIntake) annotate(raw []byte, v Verdict) ([]byte, error) {
	br := bufio.NewReader(bytes.NewReader(raw))
	header, err := textproto.ReadHeader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read message header: %w", err)
	}

	for _, key := range []string{in.cfg.StatusHeader, in.cfg.ScoreHeader, in.cfg.ErrorHeader} {
		header.Del(key)
	}

	header.Set(in.cfg.StatusHeader, v.Status)
	if v.Status == StatusFraud || v.Status == StatusClean {
		header.Set(in.cfg.ScoreHeader, strconv.FormatFloat(v.Score, 'f', 4, 64))
	}
	if v.Error != "" {
		header.Set(in.cfg.ErrorHeader, headerValue(v.Error))
	}

	var out bytes.Buffer
	if err := textproto.WriteHeader(&out, header); err != nil {
		return nil, fmt.Errorf("failed to write message header: %w", err)
	}
	if _, err := io.Copy(&out, br); err != nil {
		return nil, fmt.Errorf("failed to copy message body: %w", err)
	}
	return out.Bytes(), nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// headerValue keeps a server supplied value on a single header line
func headerValue(v string) string {
	return strings.TrimSpace(lineBreaks.Replace(v))
}

// forward relays the annotated message to the next hop
func (in *SMTPIntake) forward(from string, to []string, data []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", in.cfg.ForwardAddress, dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", in.cfg.ForwardAddress, err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := 0
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt, nil); err != nil {
			in.logger.Warn("RCPT TO failed for recipient", zap.String("recipient", rcpt), zap.Error(err))
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return errors.New("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// already delivered
		in.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

type backend struct {
	intake *SMTPIntake
}

func (b *backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &session{intake: b.intake}, nil
}

type session struct {
	intake *SMTPIntake
	from   string
	to     []string
}

func (s *session) Reset() {
	s.from = ""
	s.to = nil
}

func (s *session) Logout() error {
	return nil
}

func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.to = append(s.to, to)
	return nil
}

func (s *session) Data(r io.Reader) error {
	in := s.intake

	raw, err := io.ReadAll(r)
	if err != nil {
		in.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	annotated, verdict, err := in.Process(context.Background(), s.from, raw)
	if err != nil {
		return err
	}

	if in.cfg.ForwardAddress == "" {
		in.logger.Warn("No forward address configured, message dropped after analysis",
			zap.String("from", s.from))
	} else if err := in.forward(s.from, s.to, annotated); err != nil {
		in.logger.Error("Failed to forward email", zap.String("from", s.from), zap.Error(err))
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 4, 0},
			Message:      "Temporary forwarding failure",
		}
	}

	in.logger.Info("Processed email",
		zap.String("from", s.from),
		zap.String("sender_domain", trust.Domain(s.from)),
		zap.String("status", verdict.Status),
		zap.Float64("score", verdict.Score))
	return nil
}
