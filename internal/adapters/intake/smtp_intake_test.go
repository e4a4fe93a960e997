package intake

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/fraudguard/internal/config"
	"github.com/mikey/fraudguard/internal/extractor"
	"github.com/mikey/fraudguard/internal/protocol"
	"github.com/mikey/fraudguard/internal/trust"
	"github.com/mikey/fraudguard/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const message = "From: alerts@bank.example\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Verify now\r\n" +
	"X-Fraud-Status: clean\r\n" +
	"\r\n" +
	"Click the link to verify your account.\r\n"

type fakeSender struct {
	mu    sync.Mutex
	calls []protocol.EmailData
	reply protocol.ResultMessage
	err   error
}

func (s *fakeSender) Send(ctx context.Context, msg protocol.ActionMessage) (protocol.ResultMessage, error) {
	data, err := msg.Email()
	if err != nil {
		return protocol.ResultMessage{}, err
	}
	s.mu.Lock()
	s.calls = append(s.calls, data)
	s.mu.Unlock()
	return s.reply, s.err
}

func intakeConfig() config.IntakeConfig {
	return config.IntakeConfig{
		ListenAddress: "127.0.0.1:0",
		Timeout:       time.Second,
		StatusHeader:  "X-Fraud-Status",
		ScoreHeader:   "X-Fraud-Score",
		ErrorHeader:   "X-Fraud-Error",
	}
}

func newIntake(sender Sender, cfg config.IntakeConfig, trusted ...string) *SMTPIntake {
	logger := zap.NewNop()
	return NewSMTPIntake(sender,
		extractor.New(utils.NewTextProcessor(logger), logger),
		trust.NewChecker(trusted, logger),
		cfg, logger)
}

func TestProcess_Fraud(t *testing.T) {
	sender := &fakeSender{reply: protocol.ResultMessage{
		Success: true,
		Result:  &protocol.Analysis{IsFraudulent: true, Score: 0.9},
	}}

	out, verdict, err := newIntake(sender, intakeConfig()).Process(context.Background(), "bounce@bank.example", []byte(message))
	require.NoError(t, err)
	assert.Equal(t, StatusFraud, verdict.Status)

	require.Len(t, sender.calls, 1)
	assert.Equal(t, "alerts@bank.example", sender.calls[0].Source)
	assert.Equal(t, "Verify now", sender.calls[0].Subject)
	assert.Equal(t, "Click the link to verify your account.", sender.calls[0].Text)

	text := string(out)
	assert.Contains(t, text, "X-Fraud-Status: fraud\r\n")
	assert.Contains(t, text, "X-Fraud-Score: 0.9000\r\n")
	assert.NotContains(t, text, "X-Fraud-Status: clean")
	assert.NotContains(t, text, "X-Fraud-Error")
	assert.Contains(t, text, "Subject: Verify now\r\n")
	assert.True(t, strings.HasSuffix(text, "\r\n\r\nClick the link to verify your account.\r\n"))
}

func TestProcess_Block(t *testing.T) {
	sender := &fakeSender{reply: protocol.ResultMessage{
		Success: true,
		Result:  &protocol.Analysis{IsFraudulent: true, Score: 0.9},
	}}
	cfg := intakeConfig()
	cfg.BlockFraud = true

	out, verdict, err := newIntake(sender, cfg).Process(context.Background(), "bounce@bank.example", []byte(message))
	assert.Nil(t, out)
	assert.Equal(t, StatusFraud, verdict.Status)

	var smtpErr *smtp.SMTPError
	require.True(t, errors.As(err, &smtpErr))
	assert.Equal(t, 554, smtpErr.Code)
}

func TestProcess_CleanNotBlocked(t *testing.T) {
	sender := &fakeSender{reply: protocol.ResultMessage{Success: true, Result: &protocol.Analysis{Score: 0.1}}}
	cfg := intakeConfig()
	cfg.BlockFraud = true

	out, verdict, err := newIntake(sender, cfg).Process(context.Background(), "a@b.example", []byte(message))
	require.NoError(t, err)
	assert.Equal(t, StatusClean, verdict.Status)
	assert.Contains(t, string(out), "X-Fraud-Score: 0.1000\r\n")
}

func TestProcess_Trusted(t *testing.T) {
	sender := &fakeSender{}

	out, verdict, err := newIntake(sender, intakeConfig(), "bank.example").Process(context.Background(), "bounce@bank.example", []byte(message))
	require.NoError(t, err)
	assert.Equal(t, StatusTrusted, verdict.Status)
	assert.Empty(t, sender.calls)
	assert.Contains(t, string(out), "X-Fraud-Status: trusted\r\n")
	assert.NotContains(t, string(out), "X-Fraud-Score")
}

func TestProcess_AnalysisError(t *testing.T) {
	sender := &fakeSender{reply: protocol.ResultMessage{
		Result: &protocol.Analysis{Error: "Not logged in, please log in first"},
	}}
	cfg := intakeConfig()
	cfg.BlockFraud = true

	out, verdict, err := newIntake(sender, cfg).Process(context.Background(), "a@b.example", []byte(message))
	require.NoError(t, err)
	assert.Equal(t, StatusError, verdict.Status)
	assert.Contains(t, string(out), "X-Fraud-Status: error\r\n")
	assert.Contains(t, string(out), "X-Fraud-Error: Not logged in, please log in first\r\n")
}

func TestProcess_ErrorHeaderStaysOnOneLine(t *testing.T) {
	sender := &fakeSender{reply: protocol.ResultMessage{
		Result: &protocol.Analysis{Error: "bad\r\nX-Injected: yes\nmore"},
	}}

	out, verdict, err := newIntake(sender, intakeConfig()).Process(context.Background(), "a@b.example", []byte(message))
	require.NoError(t, err)
	assert.Equal(t, StatusError, verdict.Status)
	assert.Contains(t, string(out), "X-Fraud-Error: bad X-Injected: yes more\r\n")
	assert.NotContains(t, string(out), "\r\nX-Injected:")
}

func TestProcess_SendError(t *testing.T) {
	sender := &fakeSender{err: context.DeadlineExceeded}

	_, verdict, err := newIntake(sender, intakeConfig()).Process(context.Background(), "a@b.example", []byte(message))
	require.NoError(t, err)
	assert.Equal(t, StatusError, verdict.Status)
	assert.NotEmpty(t, verdict.Error)
}

func TestProcess_Malformed(t *testing.T) {
	_, _, err := newIntake(&fakeSender{}, intakeConfig()).Process(context.Background(), "a@b.example", []byte("garbage without header\r\n"))

	var smtpErr *smtp.SMTPError
	require.True(t, errors.As(err, &smtpErr))
	assert.Equal(t, 550, smtpErr.Code)
}

type captureBackend struct {
	mu       sync.Mutex
	from     string
	to       []string
	data     string
	received chan struct{}
}

func (b *captureBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &captureSession{b: b}, nil
}

type captureSession struct {
	b *captureBackend
}

func (s *captureSession) Reset()        {}
func (s *captureSession) Logout() error { return nil }

func (s *captureSession) Mail(from string, _ *smtp.MailOptions) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.from = from
	return nil
}

func (s *captureSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.to = append(s.b.to, to)
	return nil
}

func (s *captureSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.b.mu.Lock()
	s.b.data = string(data)
	s.b.mu.Unlock()
	close(s.b.received)
	return nil
}

func TestSMTPRoundTrip(t *testing.T) {
	downstream := &captureBackend{received: make(chan struct{})}
	next := smtp.NewServer(downstream)
	next.Domain = "localhost"
	nextListener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go next.Serve(nextListener)
	defer next.Close()

	cfg := intakeConfig()
	cfg.ForwardAddress = nextListener.Addr().String()
	sender := &fakeSender{reply: protocol.ResultMessage{Success: true, Result: &protocol.Analysis{Score: 0.2}}}
	in := newIntake(sender, cfg)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go in.Serve(l)
	defer in.Stop()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	c := smtp.NewClient(conn)
	defer c.Close()
	require.NoError(t, c.Hello("localhost"))
	require.NoError(t, c.Mail("bounce@bank.example", nil))
	require.NoError(t, c.Rcpt("me@example.com", nil))
	wc, err := c.Data()
	require.NoError(t, err)
	_, err = io.WriteString(wc, message)
	require.NoError(t, err)
	require.NoError(t, wc.Close())
	require.NoError(t, c.Quit())

	select {
	case <-downstream.received:
	case <-time.After(5 * time.Second):
		t.Fatal("message was not forwarded")
	}

	downstream.mu.Lock()
	defer downstream.mu.Unlock()
	assert.Equal(t, "bounce@bank.example", downstream.from)
	assert.Equal(t, []string{"me@example.com"}, downstream.to)
	assert.Contains(t, downstream.data, "X-Fraud-Status: clean")
	assert.Contains(t, downstream.data, "Click the link to verify your account.")
}
